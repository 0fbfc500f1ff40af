package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/DFXswiss/services-sub002/pkg/chains"
	"github.com/DFXswiss/services-sub002/pkg/types"
	"github.com/DFXswiss/services-sub002/pkg/utils"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const erc20TransferABI = `[{"inputs":[{"internalType":"address","name":"to","type":"address"},{"internalType":"uint256","name":"value","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}]`

var erc20ABI = mustParseABI(erc20TransferABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// EncodeERC20Transfer returns the calldata of transfer(to, value)
func EncodeERC20Transfer(to common.Address, value *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, value)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer call: %w", err)
	}
	return data, nil
}

// BuildTransfer implements chains.FamilyAdapter
func (a *Adapter) BuildTransfer(ctx context.Context, req *types.TransferRequest) (*types.UnsignedTransaction, error) {
	info, ok := chains.Info(req.Chain)
	if !ok || info.Family != types.FamilyEVM {
		return nil, &chains.UnsupportedChainError{Chain: req.Chain}
	}

	from, err := ChecksumAddress(req.From)
	if err != nil {
		return nil, err
	}
	to, err := ChecksumAddress(req.To)
	if err != nil {
		return nil, err
	}

	decimals := info.NativeCurrency.Decimals
	if req.Asset.IsToken() {
		decimals = req.Asset.Decimals
	}

	amount, _, err := utils.ResolveAmount(req.Amount, decimals, req.Config.IsBaseUnitAmount)
	if err != nil {
		return nil, err
	}

	evmTx := &types.EVMTransaction{
		From:    common.HexToAddress(from),
		ChainID: (*hexutil.Big)(big.NewInt(info.ID)),
	}

	if req.Asset.IsToken() {
		contract, err := ChecksumAddress(req.Asset.ContractAddress)
		if err != nil {
			return nil, err
		}
		data, err := EncodeERC20Transfer(common.HexToAddress(to), amount)
		if err != nil {
			return nil, err
		}
		contractAddr := common.HexToAddress(contract)
		evmTx.To = &contractAddr
		evmTx.Data = data
		evmTx.Value = (*hexutil.Big)(big.NewInt(0))
	} else {
		toAddr := common.HexToAddress(to)
		evmTx.To = &toAddr
		evmTx.Value = (*hexutil.Big)(amount)
	}

	applyFees(evmTx, req.Config)

	return &types.UnsignedTransaction{
		Chain:  req.Chain,
		Family: types.FamilyEVM,
		From:   from,
		To:     to,
		Amount: amount,
		Asset:  req.Asset,
		EVM:    evmTx,
	}, nil
}

// applyFees copies the fee options onto the transaction
// An explicit gas price suppresses the dynamic fee fields.
func applyFees(tx *types.EVMTransaction, config types.TransferConfig) {
	if config.GasLimit > 0 {
		gas := hexutil.Uint64(config.GasLimit)
		tx.Gas = &gas
	}

	if config.GasPrice != nil {
		tx.GasPrice = (*hexutil.Big)(new(big.Int).Set(config.GasPrice))
		tx.MaxFeePerGas = nil
		tx.MaxPriorityFeePerGas = nil
		return
	}

	if config.MaxFeePerGas != nil {
		tx.MaxFeePerGas = (*hexutil.Big)(new(big.Int).Set(config.MaxFeePerGas))
	}
	if config.MaxPriorityFeePerGas != nil {
		tx.MaxPriorityFeePerGas = (*hexutil.Big)(new(big.Int).Set(config.MaxPriorityFeePerGas))
	}
}
