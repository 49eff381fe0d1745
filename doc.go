// Package krakenacb reconstructs a pooled Adjusted Cost Basis ledger for
// crypto assets from a Kraken-style transaction history and projects the
// taxable events of one tax year, the Canadian pooled-ACB way.
//
// The pipeline is a deterministic, in-memory, two-pass batch transform:
//   - Ledger Normalization: raw CSV rows become typed, chronologically
//     ordered entries; spot-trade legs are reassembled into two-leg trade
//     groups by correlation id.
//   - Price Resolution: a first full pass over the trade groups derives
//     time-ordered implied price series per asset pair, answering
//     nearest-prior rate queries during replay.
//   - Classification: every entry or group maps to a closed set of taxable
//     and non-taxable event kinds.
//   - Pool Replay: a second pass applies the events in time order against
//     one mutable pool of units and CAD cost base per asset, producing the
//     financial outcome of each event.
//   - Report Projection: outcomes are filtered to the target tax year and
//     aggregated; pool balances stay cumulative over the full history.
//
// This package is the foundational logic for the `kat` command-line tool.
package krakenacb
