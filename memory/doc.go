// Package memory implements the in-process vector memory holding embedded
// fixture facts. The Store supports upsert by stable record id and cosine
// nearest-neighbor queries; it claims no durability and is rebuilt wholesale
// from the fact source at process start.
package memory
