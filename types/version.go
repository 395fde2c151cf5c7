package types

// Version is the canonical project version.
// The CLI, the client wire contract and the completion adapters share it.
const Version = "0.4.2"

// ContractVersion is the completion-notification contract version.
// Lockstep with Version.
const ContractVersion = Version
