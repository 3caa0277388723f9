package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestContractsDeployed(t *testing.T) {
	tests := []struct {
		name    string
		factory string
		token   string
		expect  bool
	}{
		{"both real", "0x1111111111111111111111111111111111111111", "0x2222222222222222222222222222222222222222", true},
		{"factory placeholder", "REPLACE_WITH_FACTORY_ADDRESS", "0x2222222222222222222222222222222222222222", false},
		{"token placeholder", "0x1111111111111111111111111111111111111111", "REPLACE_WITH_USDC_ADDRESS", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ContractsConfig{FactoryAddress: tt.factory, TokenAddress: tt.token}
			if got := cfg.Deployed(); got != tt.expect {
				t.Errorf("Deployed() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestLoadDeploymentRecord(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployed-addresses.json")
	record := `{
		"MockUSDC": "0x2222222222222222222222222222222222222222",
		"VaultFactory": "0x1111111111111111111111111111111111111111",
		"network": "arc-testnet",
		"chainId": 5042002,
		"deployer": "0x3333333333333333333333333333333333333333"
	}`
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadDeploymentRecord(path)
	if err != nil {
		t.Fatalf("LoadDeploymentRecord failed: %v", err)
	}
	if loaded.VaultFactory != "0x1111111111111111111111111111111111111111" {
		t.Errorf("VaultFactory = %s", loaded.VaultFactory)
	}
	if loaded.MockUSDC != "0x2222222222222222222222222222222222222222" {
		t.Errorf("MockUSDC = %s", loaded.MockUSDC)
	}
	if loaded.ChainID != 5042002 {
		t.Errorf("ChainID = %d", loaded.ChainID)
	}

	if _, err := LoadDeploymentRecord(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveContracts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployed-addresses.json")
	record := `{"MockUSDC": "0x2222222222222222222222222222222222222222", "VaultFactory": "0x1111111111111111111111111111111111111111"}`
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("deployment record fills empty addresses", func(t *testing.T) {
		cfg := &Config{Contracts: ContractsConfig{DeploymentFile: path}}
		if err := cfg.resolveContracts(); err != nil {
			t.Fatal(err)
		}
		if cfg.Contracts.FactoryAddress != "0x1111111111111111111111111111111111111111" {
			t.Errorf("FactoryAddress = %s", cfg.Contracts.FactoryAddress)
		}
		if cfg.Contracts.TokenAddress != "0x2222222222222222222222222222222222222222" {
			t.Errorf("TokenAddress = %s", cfg.Contracts.TokenAddress)
		}
	})

	t.Run("explicit config wins over record", func(t *testing.T) {
		cfg := &Config{Contracts: ContractsConfig{
			DeploymentFile: path,
			FactoryAddress: "0x4444444444444444444444444444444444444444",
		}}
		if err := cfg.resolveContracts(); err != nil {
			t.Fatal(err)
		}
		if cfg.Contracts.FactoryAddress != "0x4444444444444444444444444444444444444444" {
			t.Errorf("FactoryAddress = %s", cfg.Contracts.FactoryAddress)
		}
	})

	t.Run("environment overrides win", func(t *testing.T) {
		t.Setenv("VAULT_FACTORY_ADDRESS", "0x5555555555555555555555555555555555555555")
		t.Setenv("VAULT_USDC_ADDRESS", "0x6666666666666666666666666666666666666666")

		cfg := &Config{Contracts: ContractsConfig{DeploymentFile: path}}
		if err := cfg.resolveContracts(); err != nil {
			t.Fatal(err)
		}
		if cfg.Contracts.FactoryAddress != "0x5555555555555555555555555555555555555555" {
			t.Errorf("FactoryAddress = %s", cfg.Contracts.FactoryAddress)
		}
		if cfg.Contracts.TokenAddress != "0x6666666666666666666666666666666666666666" {
			t.Errorf("TokenAddress = %s", cfg.Contracts.TokenAddress)
		}
	})

	t.Run("missing record leaves addresses empty", func(t *testing.T) {
		cfg := &Config{Contracts: ContractsConfig{DeploymentFile: filepath.Join(dir, "missing.json")}}
		if err := cfg.resolveContracts(); err != nil {
			t.Fatal(err)
		}
		if cfg.Contracts.Deployed() {
			t.Error("expected undeployed contracts")
		}
	})
}

func TestChainIDHex(t *testing.T) {
	profile := NetworkProfile{ChainID: 5042002}
	if got := profile.ChainIDHex(); got != "0x4cef52" {
		t.Errorf("ChainIDHex() = %s, want 0x4cef52", got)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		Network: NetworkProfile{ChainID: 5042002, RPCURL: "https://rpc.testnet.arc.network"},
		Journal: JournalConfig{Type: "sqlite", ConnectionString: "./data/journal.db"},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	noRPC := &Config{Network: NetworkProfile{ChainID: 5042002}}
	if err := noRPC.Validate(); err == nil {
		t.Error("expected error for missing RPC URL")
	}

	noChain := &Config{Network: NetworkProfile{RPCURL: "https://rpc.testnet.arc.network"}}
	if err := noChain.Validate(); err == nil {
		t.Error("expected error for missing chain id")
	}

	noJournal := &Config{
		Network: NetworkProfile{ChainID: 5042002, RPCURL: "https://rpc.testnet.arc.network"},
		Journal: JournalConfig{Type: "sqlite"},
	}
	if err := noJournal.Validate(); err == nil {
		t.Error("expected error for missing journal connection string")
	}
}
