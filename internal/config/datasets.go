package config

import "github.com/muonstream/runtime/pkg/job"

// Built-in dataset file lists per data tier, used when the run options
// do not override the input files.
var defaultDatasets = map[job.Tier][]string{
	job.TierPAT: {
		"/store/user/ebouvier/RelValTTbar_14TeV/crab_UPG_CheckPat_miniAOD-prod_RelValTTbar/170612_140401/0000/miniAOD-prod_PAT_1.root",
	},
	job.TierRECO: {
		"/store/relval/CMSSW_9_1_1_patch1/RelValTTbar_14TeV/GEN-SIM-RECO/PU25ns_91X_upgrade2023_realistic_v1_D17PU200r1-v1/10000/00052551-024E-E711-B071-0242AC130002.root",
	},
}

// DefaultDataset returns the built-in input file list for a tier. The
// returned slice is a copy; callers may modify it freely.
func DefaultDataset(tier job.Tier) []string {
	files := defaultDatasets[tier]
	out := make([]string, len(files))
	copy(out, files)
	return out
}
