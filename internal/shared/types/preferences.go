package types

// Preferences holds per-profile settings as loosely typed JSON values.
type Preferences map[string]interface{}

// Migration marker keys. They are written together, at most once, when a
// profile's preferences are first synthesized from the legacy store.
const (
	PrefMigratedFromLegacy = "migrated_from_legacy"
	PrefMigrationTimestamp = "migration_timestamp"
	PrefMigratedKeyCount   = "migrated_key_count"
)

// Clone returns a shallow copy of p.
func (p Preferences) Clone() Preferences {
	out := make(Preferences, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Migrated reports whether the migration marker has been stamped.
func (p Preferences) Migrated() bool {
	v, ok := p[PrefMigratedFromLegacy].(bool)
	return ok && v
}
