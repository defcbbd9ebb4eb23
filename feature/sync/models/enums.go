package models

// ProviderType is the closed set of external platforms an integration can connect to.
type ProviderType string

const (
	ProviderGolioth      ProviderType = "golioth"
	ProviderAWSIoT       ProviderType = "aws_iot"
	ProviderAzureIoT     ProviderType = "azure_iot"
	ProviderMQTT         ProviderType = "mqtt"
	ProviderNetNeuralHub ProviderType = "netneural_hub"
)

// ProviderTypes lists every recognized provider type.
var ProviderTypes = []ProviderType{
	ProviderGolioth, ProviderAWSIoT, ProviderAzureIoT, ProviderMQTT, ProviderNetNeuralHub,
}

// Valid reports whether p is a recognized provider type.
func (p ProviderType) Valid() bool {
	for _, known := range ProviderTypes {
		if p == known {
			return true
		}
	}
	return false
}

// Strategy is an integration's automatic conflict resolution setting.
type Strategy string

const (
	// StrategyManual leaves conflicts pending for a human.
	StrategyManual       Strategy = ""
	StrategyPreferRemote Strategy = "prefer_remote"
	StrategyPreferLocal  Strategy = "prefer_local"
)

// Valid reports whether s is a recognized strategy.
func (s Strategy) Valid() bool {
	switch s {
	case StrategyManual, StrategyPreferRemote, StrategyPreferLocal:
		return true
	}
	return false
}

// Mode is the inventory scope of a sync run.
type Mode string

const (
	ModeFull        Mode = "full"
	ModeIncremental Mode = "incremental"
)

// RunStatus is the sealed outcome of a sync run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunFailed    RunStatus = "failed"
)

// SealStatus derives a run's status from its device counts.
func SealStatus(total, succeeded, failed int) RunStatus {
	switch {
	case succeeded == 0 && total > 0:
		return RunFailed
	case failed > 0 && succeeded > 0:
		return RunPartial
	default:
		return RunCompleted
	}
}

// Resolution is the lifecycle state of a conflict.
type Resolution string

const (
	ResolutionPending    Resolution = "pending"
	ResolutionKeptLocal  Resolution = "kept_local"
	ResolutionKeptRemote Resolution = "kept_remote"
	ResolutionCustom     Resolution = "custom"
)

// Terminal reports whether r is a valid manual resolution.
func (r Resolution) Terminal() bool {
	switch r {
	case ResolutionKeptLocal, ResolutionKeptRemote, ResolutionCustom:
		return true
	}
	return false
}
