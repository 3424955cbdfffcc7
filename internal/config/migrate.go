package config

type Migrate struct {
	// Seed inserts the sample catalog after migrations when the
	// products table is empty.
	Seed bool `env:"MIGRATE_SEED" envDefault:"false"`
}
