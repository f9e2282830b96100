package repositories

import "github.com/vsinha/scplan/pkg/domain/entities"

// ScenarioRepository provides access to raw demand and disruption scenarios
type ScenarioRepository interface {
	GetDemandScenarios() ([]*entities.DemandScenario, error)
	LoadDemandScenarios(scenarios []*entities.DemandScenario) error
	GetDisruptionScenarios() ([]*entities.DisruptionScenario, error)
	LoadDisruptionScenarios(scenarios []*entities.DisruptionScenario) error
}
