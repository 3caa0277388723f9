// Package contracts holds typed bindings for the three remote contracts
// the client talks to: the stablecoin token, the vault factory, and the
// per-user milestone vault. Only the gateway constructs these.
package contracts

// tokenABI covers the slice of the stablecoin interface the client uses.
const tokenABI = `[
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"faucet","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

const factoryABI = `[
  {"type":"function","name":"createVault","stateMutability":"nonpayable","inputs":[{"name":"name","type":"string"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"getUserVaults","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"address[]"}]},
  {"type":"event","name":"VaultCreated","inputs":[{"name":"owner","type":"address","indexed":true},{"name":"vaultAddress","type":"address","indexed":true},{"name":"name","type":"string","indexed":false}],"anonymous":false}
]`

const vaultABI = `[
  {"type":"function","name":"vaultName","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"getVaultStats","stateMutability":"view","inputs":[],"outputs":[
    {"name":"totalDeposited","type":"uint256"},
    {"name":"totalReleased","type":"uint256"},
    {"name":"totalLocked","type":"uint256"},
    {"name":"milestoneCount","type":"uint256"},
    {"name":"completedMilestones","type":"uint256"},
    {"name":"pendingMilestones","type":"uint256"}]},
  {"type":"function","name":"getMilestones","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[
    {"name":"id","type":"uint256"},
    {"name":"title","type":"string"},
    {"name":"description","type":"string"},
    {"name":"amount","type":"uint256"},
    {"name":"deadline","type":"uint256"},
    {"name":"createdAt","type":"uint256"},
    {"name":"status","type":"uint8"}]}]},
  {"type":"function","name":"getTransactions","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[
    {"name":"timestamp","type":"uint256"},
    {"name":"action","type":"string"},
    {"name":"amount","type":"uint256"},
    {"name":"actor","type":"address"}]}]},
  {"type":"function","name":"depositFunds","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"addMilestone","stateMutability":"nonpayable","inputs":[{"name":"title","type":"string"},{"name":"description","type":"string"},{"name":"amount","type":"uint256"},{"name":"deadline","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"submitMilestone","stateMutability":"nonpayable","inputs":[{"name":"milestoneId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"approveMilestone","stateMutability":"nonpayable","inputs":[{"name":"milestoneId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"rejectMilestone","stateMutability":"nonpayable","inputs":[{"name":"milestoneId","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"releasePayment","stateMutability":"nonpayable","inputs":[{"name":"milestoneId","type":"uint256"}],"outputs":[]}
]`
