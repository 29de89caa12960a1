package service

import (
	"fmt"

	"github.com/maksimkurb/fw-ipsets/src/internal/config"
	"github.com/maksimkurb/fw-ipsets/src/internal/lists"
	"github.com/maksimkurb/fw-ipsets/src/internal/networking"
)

// CheckStatus is the outcome of a single self-check probe.
type CheckStatus string

const (
	CheckOK   CheckStatus = "ok"
	CheckWarn CheckStatus = "warn"
	CheckFail CheckStatus = "fail"
)

// CheckResult is one line of the self-check report.
type CheckResult struct {
	// Set is the definition name, empty for host-wide checks.
	Set     string
	Check   string
	Status  CheckStatus
	Message string
}

// SystemProbe inspects the host without modifying it.
type SystemProbe interface {
	LookPath(tool string) error
	IsRoot() bool
	IPSetExists(name string) bool
	LookupNFTSet(def *config.SetDefinition) (networking.NFTSetStatus, error)
	IPTablesReferences(setName string, ipVersion config.IPFamily) ([]string, error)
}

type systemProbe struct{}

func (systemProbe) LookPath(tool string) error {
	return networking.CheckExecutable(tool)
}

func (systemProbe) IsRoot() bool {
	return networking.IsRoot()
}

func (systemProbe) IPSetExists(name string) bool {
	return networking.IPSetExists(name)
}

func (systemProbe) LookupNFTSet(def *config.SetDefinition) (networking.NFTSetStatus, error) {
	return networking.LookupNFTSet(def)
}

func (systemProbe) IPTablesReferences(setName string, ipVersion config.IPFamily) ([]string, error) {
	return networking.FindIPTablesReferences(setName, ipVersion)
}

// SelfCheckService verifies that a configuration can be applied on this host.
//
// Failures are things that would make `apply` fail (missing tools, missing
// nftables tables, unparsable sources). Warnings are informational, such as a
// set that will be created on first apply or that no firewall rule uses yet.
type SelfCheckService struct {
	probe      SystemProbe
	readSource SourceReader
}

// NewSelfCheckService creates a self-check service that probes the local system.
func NewSelfCheckService() *SelfCheckService {
	return NewSelfCheckServiceWithProbe(systemProbe{})
}

func NewSelfCheckServiceWithProbe(probe SystemProbe) *SelfCheckService {
	return &SelfCheckService{
		probe:      probe,
		readSource: lists.ReadSource,
	}
}

// Run executes all checks for the given definitions.
func (s *SelfCheckService) Run(cfg *config.Config, defs []*config.SetDefinition) []CheckResult {
	var results []CheckResult

	if s.probe.IsRoot() {
		results = append(results, CheckResult{Check: "privileges", Status: CheckOK, Message: "running as root"})
	} else {
		results = append(results, CheckResult{Check: "privileges", Status: CheckFail, Message: "not running as root, set updates will fail"})
	}

	needIPSet, needNFT := false, false
	for _, def := range defs {
		needIPSet = needIPSet || def.IsIPSet()
		needNFT = needNFT || def.IsNFT()
	}
	if needIPSet {
		results = append(results, s.checkTool("ipset"))
	}
	if needNFT {
		results = append(results, s.checkTool("nft"))
	}

	for _, def := range defs {
		results = append(results, s.checkSource(cfg, def))
		if def.IsNFT() {
			results = append(results, s.checkNFTSet(def))
		} else {
			results = append(results, s.checkIPSet(def)...)
		}
	}

	return results
}

func (s *SelfCheckService) checkTool(tool string) CheckResult {
	if err := s.probe.LookPath(tool); err != nil {
		return CheckResult{Check: "tool", Status: CheckFail, Message: err.Error()}
	}
	return CheckResult{Check: "tool", Status: CheckOK, Message: fmt.Sprintf("%s command found", tool)}
}

func (s *SelfCheckService) checkSource(cfg *config.Config, def *config.SetDefinition) CheckResult {
	path := cfg.GetAbsSourcePath(def)
	set, err := s.readSource(path, def.Type, def.GetIPVersion())
	if err != nil {
		return CheckResult{Set: def.Name, Check: "source", Status: CheckFail, Message: err.Error()}
	}
	return CheckResult{Set: def.Name, Check: "source", Status: CheckOK, Message: fmt.Sprintf("%s: %d items", path, set.Len())}
}

func (s *SelfCheckService) checkIPSet(def *config.SetDefinition) []CheckResult {
	var results []CheckResult

	if s.probe.IPSetExists(def.Name) {
		results = append(results, CheckResult{Set: def.Name, Check: "ipset", Status: CheckOK, Message: fmt.Sprintf("ipset [%s] exists", def.Name)})
	} else {
		results = append(results, CheckResult{Set: def.Name, Check: "ipset", Status: CheckWarn, Message: fmt.Sprintf("ipset [%s] does not exist yet, it will be created on apply", def.Name)})
	}

	refs, err := s.probe.IPTablesReferences(def.Name, def.GetIPVersion())
	switch {
	case err != nil:
		results = append(results, CheckResult{Set: def.Name, Check: "iptables", Status: CheckWarn, Message: fmt.Sprintf("cannot inspect iptables rules: %v", err)})
	case len(refs) == 0:
		results = append(results, CheckResult{Set: def.Name, Check: "iptables", Status: CheckWarn, Message: "no iptables rule references this set"})
	default:
		results = append(results, CheckResult{Set: def.Name, Check: "iptables", Status: CheckOK, Message: fmt.Sprintf("referenced by %d iptables rule(s)", len(refs))})
	}

	return results
}

func (s *SelfCheckService) checkNFTSet(def *config.SetDefinition) CheckResult {
	status, err := s.probe.LookupNFTSet(def)
	switch {
	case err != nil:
		return CheckResult{Set: def.Name, Check: "nft", Status: CheckFail, Message: err.Error()}
	case !status.TableExists:
		return CheckResult{Set: def.Name, Check: "nft", Status: CheckFail, Message: fmt.Sprintf("table %s %s does not exist", def.GetFamily(), def.Table)}
	case !status.SetExists:
		return CheckResult{Set: def.Name, Check: "nft", Status: CheckWarn, Message: fmt.Sprintf("set %s does not exist yet, it will be created on apply", def.Name)}
	default:
		return CheckResult{Set: def.Name, Check: "nft", Status: CheckOK, Message: fmt.Sprintf("set %s exists in table %s %s", def.Name, def.GetFamily(), def.Table)}
	}
}

// HasFailures reports whether any result failed.
func HasFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.Status == CheckFail {
			return true
		}
	}
	return false
}
