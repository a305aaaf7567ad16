package metrics

import (
	"sync/atomic"
	"time"
)

type SearchMetric struct {
	Engine       string
	Duration     time.Duration
	Simulations  int
	FullPlayouts int
	Cutoff       int // Rollout plies for MCTS, depth for alpha-beta
	Nodes        int
	Prunes       int
	TreeSize     int
}

type MoveMetric struct {
	Step   int
	Player int // +1 first player, -1 second
	Move   string
	SearchMetric
}

type GameMetric struct {
	StartingPlayer int
	Winner         int // 0 for draws and unfinished games
	Result         string
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TotalMoves     int
}

type Collector interface {
	Start(engine string, cutoff int)
	AddSimulation()
	AddFullPlayout()
	AddNode()
	AddPrune()
	SetTreeSize(size int)
	Complete() SearchMetric
}

type collector struct {
	engine       string
	cutoff       int
	startTime    time.Time
	simulations  atomic.Int32
	fullPlayouts atomic.Int32
	nodes        atomic.Int64
	prunes       atomic.Int64
	treeSize     atomic.Int32
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start(engine string, cutoff int) {
	m.startTime = time.Now()
	m.engine = engine
	m.cutoff = cutoff
	m.simulations.Store(0)
	m.fullPlayouts.Store(0)
	m.nodes.Store(0)
	m.prunes.Store(0)
	m.treeSize.Store(0)
}

func (m *collector) AddSimulation() {
	m.simulations.Add(1)
}

func (m *collector) AddFullPlayout() {
	m.fullPlayouts.Add(1)
}

func (m *collector) AddNode() {
	m.nodes.Add(1)
}

func (m *collector) AddPrune() {
	m.prunes.Add(1)
}

func (m *collector) SetTreeSize(size int) {
	m.treeSize.Store(int32(size))
}

func (m *collector) Complete() SearchMetric {
	return SearchMetric{
		Engine:       m.engine,
		Duration:     time.Since(m.startTime),
		Simulations:  int(m.simulations.Load()),
		FullPlayouts: int(m.fullPlayouts.Load()),
		Cutoff:       m.cutoff,
		Nodes:        int(m.nodes.Load()),
		Prunes:       int(m.prunes.Load()),
		TreeSize:     int(m.treeSize.Load()),
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start(engine string, cutoff int) {}
func (m *dummyCollector) AddSimulation()                  {}
func (m *dummyCollector) AddFullPlayout()                 {}
func (m *dummyCollector) AddNode()                        {}
func (m *dummyCollector) AddPrune()                       {}
func (m *dummyCollector) SetTreeSize(size int)            {}
func (m *dummyCollector) Complete() SearchMetric          { return SearchMetric{} }
