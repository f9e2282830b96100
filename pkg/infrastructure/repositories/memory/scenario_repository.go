package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/scplan/pkg/domain/entities"
	"github.com/vsinha/scplan/pkg/domain/repositories"
)

// ScenarioRepository provides in-memory storage for demand and disruption scenarios
type ScenarioRepository struct {
	mu          sync.RWMutex
	demands     []entities.DemandScenario
	disruptions []entities.DisruptionScenario
	demandIDs   map[string]bool
	disruptIDs  map[string]bool
}

// NewScenarioRepository creates a new in-memory scenario repository
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{
		demandIDs:  make(map[string]bool),
		disruptIDs: make(map[string]bool),
	}
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// LoadDemandScenarios appends demand scenarios, rejecting duplicate IDs
func (r *ScenarioRepository) LoadDemandScenarios(scenarios []*entities.DemandScenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sc := range scenarios {
		if sc == nil {
			return fmt.Errorf("demand scenario cannot be nil")
		}
		if r.demandIDs[sc.ID] {
			return fmt.Errorf("demand scenario %s already exists", sc.ID)
		}
		r.demandIDs[sc.ID] = true
		r.demands = append(r.demands, *sc)
	}
	return nil
}

// GetDemandScenarios returns demand scenarios in load order
func (r *ScenarioRepository) GetDemandScenarios() ([]*entities.DemandScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scenarios := make([]*entities.DemandScenario, 0, len(r.demands))
	for i := range r.demands {
		scenarios = append(scenarios, &r.demands[i])
	}
	return scenarios, nil
}

// LoadDisruptionScenarios appends disruption scenarios, rejecting duplicate IDs
func (r *ScenarioRepository) LoadDisruptionScenarios(scenarios []*entities.DisruptionScenario) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sc := range scenarios {
		if sc == nil {
			return fmt.Errorf("disruption scenario cannot be nil")
		}
		if r.disruptIDs[sc.ID] {
			return fmt.Errorf("disruption scenario %s already exists", sc.ID)
		}
		r.disruptIDs[sc.ID] = true
		r.disruptions = append(r.disruptions, *sc)
	}
	return nil
}

// GetDisruptionScenarios returns disruption scenarios in load order
func (r *ScenarioRepository) GetDisruptionScenarios() ([]*entities.DisruptionScenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scenarios := make([]*entities.DisruptionScenario, 0, len(r.disruptions))
	for i := range r.disruptions {
		scenarios = append(scenarios, &r.disruptions[i])
	}
	return scenarios, nil
}
