// Package conflict settles field-level disagreements between canonical devices
// and their providers.
//
// The Detector runs inside a sync: an integration with an automatic strategy
// (prefer_remote or prefer_local) has its conflicts settled on the spot and
// logged; otherwise a pending Conflict is created and the field stays frozen
// until a person resolves it. The Resolver is that manual path.
//
// A conflict moves none -> detected -> resolved and never leaves resolved.
package conflict
