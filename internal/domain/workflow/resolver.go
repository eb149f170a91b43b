package workflow

// Specificity ranks how concretely a configuration's matching criteria are
// specified. Lower is more specific and wins selection. The ranking is kept
// as a named function, outside any SQL, so tests can target it directly.
//
//	0: device type and customer tier both exact
//	1: device type exact, customer tier wildcard
//	2: device type wildcard, customer tier exact
//	3: both wildcard
func Specificity(cfg Configuration) int {
	switch {
	case cfg.DeviceTypeID != nil && cfg.CustomerTier != nil:
		return 0
	case cfg.DeviceTypeID != nil:
		return 1
	case cfg.CustomerTier != nil:
		return 2
	default:
		return 3
	}
}

// Matches reports whether the configuration applies to the given case
// inputs. Service type must match exactly; a nil dimension matches any
// value. An empty customerTier only matches tier-wildcard configurations.
func Matches(cfg Configuration, deviceTypeID, customerTier, serviceType string) bool {
	if !cfg.IsActive || cfg.ServiceType != serviceType {
		return false
	}
	if cfg.DeviceTypeID != nil && *cfg.DeviceTypeID != deviceTypeID {
		return false
	}
	if cfg.CustomerTier != nil && *cfg.CustomerTier != customerTier {
		return false
	}
	return true
}

// SelectConfiguration picks the single best-matching configuration from the
// candidates: the lowest Specificity rank, ties broken by lowest ID. The
// result is deterministic for identical inputs. Returns ErrNoConfiguration
// when nothing matches.
func SelectConfiguration(candidates []Configuration, deviceTypeID, customerTier, serviceType string) (Configuration, error) {
	var best Configuration
	found := false
	for _, cfg := range candidates {
		if !Matches(cfg, deviceTypeID, customerTier, serviceType) {
			continue
		}
		if !found {
			best = cfg
			found = true
			continue
		}
		rank, bestRank := Specificity(cfg), Specificity(best)
		if rank < bestRank || (rank == bestRank && cfg.ID < best.ID) {
			best = cfg
		}
	}
	if !found {
		return Configuration{}, ErrNoConfiguration
	}
	return best, nil
}
