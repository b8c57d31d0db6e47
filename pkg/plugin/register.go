package plugin

// Register is set by pkg/collector at construction time and is how a
// concrete plugin self-registers without the plugin package importing the
// collector package (mirroring teacher's pkg/exporter.Registry var).
var Register func(p Plugin) error
