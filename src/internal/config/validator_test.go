package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maksimkurb/fw-ipsets/src/internal/items"
)

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("10.0.0.0/8\n"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	return path
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	tmpDir := t.TempDir()
	source := writeSource(t, tmpDir, "list.txt")

	return &Config{
		TempSuffix: "_tmp",
		IPSets: []*SetDefinition{
			{
				Backend:    BackendIPSet,
				Name:       "blocklist",
				Type:       items.Network,
				KernelOpts: []string{"maxelem", "131072"},
				Source:     source,
			},
			{
				Backend: BackendNFT,
				Name:    "allowed_hosts",
				Family:  "inet",
				Table:   "filter",
				Type:    items.Address,
				Source:  source,
			},
		},
		_absConfigFilePath: filepath.Join(tmpDir, "fw-ipsets.toml"),
	}
}

func expectValidationError(t *testing.T, err error, fieldPath string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected validation error for %s", fieldPath)
	}

	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Expected ValidationErrors, got %T: %v", err, err)
	}
	for _, e := range verrs {
		if e.FieldPath == fieldPath {
			return
		}
	}
	t.Errorf("Expected error for field %s, got: %v", fieldPath, err)
}

func TestValidateConfig_Success(t *testing.T) {
	if err := validConfig(t).ValidateConfig(); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
}

func TestValidateConfig_MissingTempSuffix(t *testing.T) {
	config := validConfig(t)
	config.TempSuffix = ""

	expectValidationError(t, config.ValidateConfig(), "temp-suffix")
}

func TestValidateConfig_InvalidTempSuffix(t *testing.T) {
	config := validConfig(t)
	config.TempSuffix = "tmp suffix"

	expectValidationError(t, config.ValidateConfig(), "temp-suffix")
}

func TestValidateConfig_NoIPSets(t *testing.T) {
	config := &Config{TempSuffix: "_tmp"}

	expectValidationError(t, config.ValidateConfig(), "ipsets")
}

func TestValidateIPSets_FieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(def *SetDefinition)
		fieldPath string
	}{
		{"missing backend", func(d *SetDefinition) { d.Backend = "" }, "ipsets.0.backend"},
		{"unknown backend", func(d *SetDefinition) { d.Backend = "iptables" }, "ipsets.0.backend"},
		{"missing name", func(d *SetDefinition) { d.Name = "" }, "ipsets.0.name"},
		{"invalid name", func(d *SetDefinition) { d.Name = "bad name" }, "ipsets.0.name"},
		{"unknown type", func(d *SetDefinition) { d.Type = "mac" }, "ipsets.0.type"},
		{"bad ip version", func(d *SetDefinition) { d.IPVersion = 5 }, "ipsets.0.ip-version"},
		{"multiline kernel opt", func(d *SetDefinition) { d.KernelOpts = []string{"maxelem\nflush"} }, "ipsets.0.kernel-opts[0]"},
		{"missing source", func(d *SetDefinition) { d.Source = "" }, "ipsets.0.source"},
		{"source not found", func(d *SetDefinition) { d.Source = "/non/existent/list.txt" }, "ipsets.0.source"},
		{"family on ipset", func(d *SetDefinition) { d.Family = "ip" }, "ipsets.0.family"},
		{"table on ipset", func(d *SetDefinition) { d.Table = "filter" }, "ipsets.0.table"},
		{"name too long with suffix", func(d *SetDefinition) { d.Name = strings.Repeat("a", 28) }, "ipsets.0.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig(t)
			tt.mutate(config.IPSets[0])

			expectValidationError(t, config.ValidateConfig(), tt.fieldPath)
		})
	}
}

func TestValidateIPSets_NFTRequiresTable(t *testing.T) {
	config := validConfig(t)
	config.IPSets[1].Table = ""

	expectValidationError(t, config.ValidateConfig(), "ipsets.1.table")
}

func TestValidateIPSets_NFTFamily(t *testing.T) {
	config := validConfig(t)
	config.IPSets[1].Family = "ipx"

	expectValidationError(t, config.ValidateConfig(), "ipsets.1.family")
}

func TestValidateIPSets_NFTablesAlias(t *testing.T) {
	config := validConfig(t)
	config.IPSets[1].Backend = BackendNFTables

	if err := config.ValidateConfig(); err != nil {
		t.Errorf("Expected nftables alias to be accepted, got: %v", err)
	}
}

func TestValidateIPSets_Duplicates(t *testing.T) {
	config := validConfig(t)
	dup := *config.IPSets[0]
	config.IPSets = append(config.IPSets, &dup)

	expectValidationError(t, config.ValidateConfig(), "ipsets.2.name")
}

func TestValidateIPSets_SameNameDifferentNFTTables(t *testing.T) {
	config := validConfig(t)
	other := *config.IPSets[1]
	other.Table = "nat"
	config.IPSets = append(config.IPSets, &other)

	if err := config.ValidateConfig(); err != nil {
		t.Errorf("Expected same set name in different tables to be valid, got: %v", err)
	}
}

func TestValidateIPSets_TempNameCollision(t *testing.T) {
	config := validConfig(t)
	collision := *config.IPSets[0]
	collision.Name = "blocklist_tmp"
	config.IPSets = append(config.IPSets, &collision)

	expectValidationError(t, config.ValidateConfig(), "ipsets.0.name")
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{ItemName: "blocklist", FieldPath: "ipsets.0.table", Message: "table can only be used with the nft backend"},
		{FieldPath: "temp-suffix", Message: "field is required"},
	}

	msg := errs.Error()
	if !strings.Contains(msg, "validation failed with 2 error(s)") {
		t.Errorf("Unexpected header: %s", msg)
	}
	if !strings.Contains(msg, "1. [blocklist] ipsets.0.table: table can only be used with the nft backend") {
		t.Errorf("Missing item error: %s", msg)
	}
	if !strings.Contains(msg, "2. temp-suffix: field is required") {
		t.Errorf("Missing global error: %s", msg)
	}

	if (ValidationErrors{}).Error() != "no validation errors" {
		t.Error("Unexpected message for empty errors")
	}
}
