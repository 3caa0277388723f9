package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Factory binds the vault factory contract.
type Factory struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
}

// VaultCreated is the event the factory emits when it deploys a vault.
type VaultCreated struct {
	Owner        common.Address
	VaultAddress common.Address
	Name         string
}

// NewFactory binds the factory contract at the given address.
func NewFactory(address common.Address, backend bind.ContractBackend) (*Factory, error) {
	parsed, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, err
	}
	return &Factory{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

// Address returns the bound contract address.
func (f *Factory) Address() common.Address {
	return f.address
}

// GetUserVaults returns the vault addresses recorded for a user.
func (f *Factory) GetUserVaults(opts *bind.CallOpts, user common.Address) ([]common.Address, error) {
	var out []interface{}
	if err := f.contract.Call(opts, &out, "getUserVaults", user); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]common.Address)).(*[]common.Address), nil
}

// CreateVault deploys a new vault owned by the caller.
func (f *Factory) CreateVault(opts *bind.TransactOpts, name string) (*types.Transaction, error) {
	return f.contract.Transact(opts, "createVault", name)
}

// ParseVaultCreated extracts a VaultCreated event from a receipt log.
// Returns nil when the log is not a VaultCreated emission.
func (f *Factory) ParseVaultCreated(log types.Log) (*VaultCreated, error) {
	event, ok := f.abi.Events["VaultCreated"]
	if !ok || len(log.Topics) == 0 || log.Topics[0] != event.ID {
		return nil, nil
	}

	var parsed VaultCreated
	if err := f.contract.UnpackLog(&parsed, "VaultCreated", log); err != nil {
		return nil, err
	}
	return &parsed, nil
}
