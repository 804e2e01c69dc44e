// Package cache provides TTL caching for remote call results.
//
// A fresh cache entry lets the call pipeline skip rate limiting, circuit
// breaking, and the remote call entirely. Two backends are provided: an
// in-process MemoryCache and a Redis-backed RedisCache for deployments where
// multiple processes should share cached results.
//
// Keys are composed by the caller, typically through DefaultKeyer, which
// hashes the operation key together with a canonical JSON form of the call
// parameters so that distinct parameterizations never collide.
package cache
