// Package config is the configuration store: a JSON file on disk, overlaid
// with environment variables, loaded into one snapshot that callers read
// through typed section accessors.
//
// Two policies are supported (see Variant):
//
//   - VariantStrict: the IGDB credentials must come from the environment,
//     and the server and database sections are fixed by Options.Defaults.
//     Neither file nor environment can move them.
//   - VariantLenient: credentials are optional, and the server and database
//     sections come from the file, then from DATABASE_FILE, SERVER_HOST and
//     SERVER_PORT.
//
// The IGDB credentials are never read from or written to the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/sakif/hostcart/internal/apperror"
	"github.com/sakif/hostcart/internal/model"
)

const (
	DefaultConfigFile   = "config/config.json"
	DefaultDatabaseFile = "database/data.db"
	DefaultHost         = "0.0.0.0"
	DefaultPort         = 8000

	defaultDataRefreshLimit = 1
)

// Environment variables read by the store.
const (
	EnvIGDBClientID     = "IGDB_CLIENT_ID"
	EnvIGDBClientSecret = "IGDB_CLIENT_SECRET"
	EnvIGDBAuthToken    = "IGDB_AUTH_TOKEN"
	EnvDatabaseFile     = "DATABASE_FILE"
	EnvServerHost       = "SERVER_HOST"
	EnvServerPort       = "SERVER_PORT"
)

// Section names accepted by Section and Update.
const (
	SectionIGDB     = "igdb"
	SectionServer   = "server"
	SectionWebUI    = "web_ui"
	SectionDatabase = "database"
)

// ErrNotLoaded is returned by every accessor until Load has succeeded.
var ErrNotLoaded = &apperror.AppError{
	Err:     apperror.ErrConfigMissing,
	Message: "configuration not loaded",
}

// Variant selects where the server/database sections and the IGDB
// credentials come from.
type Variant int

const (
	VariantStrict Variant = iota
	VariantLenient
)

func (v Variant) String() string {
	switch v {
	case VariantStrict:
		return "strict"
	case VariantLenient:
		return "lenient"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// ParseVariant accepts "strict" or "lenient"; empty means strict.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return VariantStrict, nil
	case "lenient":
		return VariantLenient, nil
	default:
		return 0, apperror.ValidationFailed("variant", fmt.Sprintf("unknown configuration variant %q", s))
	}
}

// Defaults are the fixed server/database values in the strict variant and
// the fallbacks in the lenient one.
type Defaults struct {
	DBFile string
	Host   string
	Port   int
}

// Options configures a Store.
type Options struct {
	Path     string
	Variant  Variant
	Defaults Defaults
}

// DefaultOptions returns the strict variant reading DefaultConfigFile.
func DefaultOptions() Options {
	return Options{
		Path:    DefaultConfigFile,
		Variant: VariantStrict,
		Defaults: Defaults{
			DBFile: DefaultDatabaseFile,
			Host:   DefaultHost,
			Port:   DefaultPort,
		},
	}
}

// IGDBConfig is the igdb section. The credential fields are filled from the
// environment only.
type IGDBConfig struct {
	ClientID     string `json:"-"`
	ClientSecret string `json:"-"`
	AuthToken    string `json:"-"`

	TokenTimestamp   string `json:"token_timestamp" mapstructure:"token_timestamp"`
	DataRefreshLimit int    `json:"data_refresh_limit" mapstructure:"data_refresh_limit"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WebUIConfig is reserved; the section is kept so the file layout is stable.
type WebUIConfig struct{}

type DatabaseConfig struct {
	DBFile string `json:"db_file" mapstructure:"db_file"`
}

// Snapshot is one complete, loaded configuration. Values handed out by the
// Store are copies: changing them does not change the Store.
type Snapshot struct {
	IGDB      IGDBConfig
	Server    ServerConfig
	WebUI     WebUIConfig
	Database  DatabaseConfig
	Platforms []string
}

func (s Snapshot) clone() Snapshot {
	cp := s
	if s.Platforms != nil {
		cp.Platforms = append([]string(nil), s.Platforms...)
	}
	return cp
}

// fileConfig is the part of the file viper decodes.
type fileConfig struct {
	IGDB      IGDBConfig     `mapstructure:"igdb"`
	Server    ServerConfig   `mapstructure:"server"`
	Database  DatabaseConfig `mapstructure:"database"`
	Platforms []string       `mapstructure:"platforms"`
}

// Store holds the current Snapshot. It is safe for concurrent use.
type Store struct {
	opts Options

	mu   sync.RWMutex
	snap *Snapshot
}

// New returns an unloaded Store. Call Load before reading from it.
func New(opts Options) *Store {
	if opts.Path == "" {
		opts.Path = DefaultConfigFile
	}
	d := DefaultOptions().Defaults
	if opts.Defaults.DBFile == "" {
		opts.Defaults.DBFile = d.DBFile
	}
	if opts.Defaults.Host == "" {
		opts.Defaults.Host = d.Host
	}
	if opts.Defaults.Port == 0 {
		opts.Defaults.Port = d.Port
	}
	return &Store{opts: opts}
}

// Open is New followed by Load.
func Open(opts Options) (*Store, error) {
	s := New(opts)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the configuration file the Store reads and writes.
func (s *Store) Path() string { return s.opts.Path }

// Variant returns the policy the Store was built with.
func (s *Store) Variant() Variant { return s.opts.Variant }

// Load reads the file and the environment and replaces the snapshot.
// On failure the previous snapshot, if any, is kept.
//
// As a side effect the directory of the database file is created.
func (s *Store) Load() error {
	path := s.opts.Path
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: %w: %w",
				apperror.ConfigMissing(path, fmt.Sprintf("configuration file '%s' not found", path)), err)
		}
		return fmt.Errorf("config: checking %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetDefault("igdb.token_timestamp", "")
	v.SetDefault("igdb.data_refresh_limit", defaultDataRefreshLimit)
	v.SetDefault("server.host", s.opts.Defaults.Host)
	v.SetDefault("server.port", s.opts.Defaults.Port)
	v.SetDefault("database.db_file", s.opts.Defaults.DBFile)

	if s.opts.Variant == VariantLenient {
		bindings := map[string]string{
			"database.db_file": EnvDatabaseFile,
			"server.host":      EnvServerHost,
			"server.port":      EnvServerPort,
		}
		for key, env := range bindings {
			if err := v.BindEnv(key, env); err != nil {
				return fmt.Errorf("config: binding %s: %w", env, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var fc fileConfig
	if s.opts.Variant == VariantStrict {
		strict, err := decodeStrict(v)
		if err != nil {
			return fmt.Errorf("config: decoding %s: %w", path, err)
		}
		fc = strict
	} else if err := v.Unmarshal(&fc); err != nil {
		return fmt.Errorf("config: decoding %s: %w", path, err)
	}

	snap := Snapshot{
		IGDB: IGDBConfig{
			TokenTimestamp:   fc.IGDB.TokenTimestamp,
			DataRefreshLimit: fc.IGDB.DataRefreshLimit,
		},
		Server:    fc.Server,
		Database:  fc.Database,
		Platforms: fc.Platforms,
	}

	if s.opts.Variant == VariantStrict {
		snap.Server = ServerConfig{Host: s.opts.Defaults.Host, Port: s.opts.Defaults.Port}
		snap.Database = DatabaseConfig{DBFile: s.opts.Defaults.DBFile}
	}

	if err := s.loadCredentials(&snap.IGDB); err != nil {
		return err
	}

	if err := ensureDir(snap.Database.DBFile); err != nil {
		return fmt.Errorf("config: creating database directory: %w", err)
	}

	s.mu.Lock()
	s.snap = &snap
	s.mu.Unlock()
	return nil
}

// decodeStrict reads only the igdb fields and the platform list. The strict
// variant takes server and database from Defaults, so whatever the file
// holds for them is never decoded.
func decodeStrict(v *viper.Viper) (fileConfig, error) {
	var fc fileConfig
	var err error

	if fc.IGDB.TokenTimestamp, err = cast.ToStringE(v.Get("igdb.token_timestamp")); err != nil {
		return fileConfig{}, fmt.Errorf("igdb.token_timestamp: %w", err)
	}
	if fc.IGDB.DataRefreshLimit, err = cast.ToIntE(v.Get("igdb.data_refresh_limit")); err != nil {
		return fileConfig{}, fmt.Errorf("igdb.data_refresh_limit: %w", err)
	}
	if v.IsSet("platforms") {
		if fc.Platforms, err = cast.ToStringSliceE(v.Get("platforms")); err != nil {
			return fileConfig{}, fmt.Errorf("platforms: %w", err)
		}
	}
	return fc, nil
}

// Reload re-reads file and environment. It fails the same way Load does.
func (s *Store) Reload() error {
	return s.Load()
}

// loadCredentials fills the IGDB credentials from the environment. In the
// strict variant every missing variable is reported, not only the first.
func (s *Store) loadCredentials(igdb *IGDBConfig) error {
	vars := []struct {
		name string
		dst  *string
	}{
		{EnvIGDBClientID, &igdb.ClientID},
		{EnvIGDBClientSecret, &igdb.ClientSecret},
		{EnvIGDBAuthToken, &igdb.AuthToken},
	}

	var missing []string
	for _, ev := range vars {
		value, ok := os.LookupEnv(ev.name)
		if !ok && s.opts.Variant == VariantStrict {
			missing = append(missing, ev.name)
			continue
		}
		*ev.dst = value
	}

	if len(missing) > 0 {
		return fmt.Errorf("config: %w", apperror.ConfigMissing(missing[0],
			fmt.Sprintf("required environment variables not set: %s", strings.Join(missing, ", "))))
	}
	return nil
}

func ensureDir(dbFile string) error {
	if dbFile == "" || dbFile == ":memory:" {
		return nil
	}
	dir := filepath.Dir(dbFile)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) snapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return Snapshot{}, ErrNotLoaded
	}
	return s.snap.clone(), nil
}

// Snapshot returns a copy of the whole configuration.
func (s *Store) Snapshot() (Snapshot, error) {
	return s.snapshot()
}

func (s *Store) IGDB() (IGDBConfig, error) {
	snap, err := s.snapshot()
	return snap.IGDB, err
}

func (s *Store) Server() (ServerConfig, error) {
	snap, err := s.snapshot()
	return snap.Server, err
}

func (s *Store) Database() (DatabaseConfig, error) {
	snap, err := s.snapshot()
	return snap.Database, err
}

func (s *Store) WebUI() (WebUIConfig, error) {
	snap, err := s.snapshot()
	return snap.WebUI, err
}

func (s *Store) Platforms() ([]string, error) {
	snap, err := s.snapshot()
	return snap.Platforms, err
}

// Section looks a section up by name. An empty name returns the whole
// Snapshot.
func (s *Store) Section(name string) (any, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	switch name {
	case "":
		return snap, nil
	case SectionIGDB:
		return snap.IGDB, nil
	case SectionServer:
		return snap.Server, nil
	case SectionWebUI:
		return snap.WebUI, nil
	case SectionDatabase:
		return snap.Database, nil
	default:
		return nil, apperror.ValidationFailed("section", fmt.Sprintf("unknown configuration section: %s", name))
	}
}

// SetIGDBCredentials replaces the in-memory credentials, for example after
// the user pastes new ones. They are never saved.
func (s *Store) SetIGDBCredentials(clientID, clientSecret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return ErrNotLoaded
	}
	s.snap.IGDB.ClientID = clientID
	s.snap.IGDB.ClientSecret = clientSecret
	return nil
}

// AddPlatforms appends the platforms not already listed and returns those
// it added, in order. Names are normalised with model.ParsePlatform, and an
// unknown name rejects the whole call. The list is persisted on the next Save.
func (s *Store) AddPlatforms(platforms []string) ([]string, error) {
	parsed := make([]string, 0, len(platforms))
	for _, name := range platforms {
		p, err := model.ParsePlatform(name)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, string(p))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, ErrNotLoaded
	}

	added := []string{}
	for _, p := range parsed {
		if contains(s.snap.Platforms, p) {
			continue
		}
		s.snap.Platforms = append(s.snap.Platforms, p)
		added = append(added, p)
	}
	return added, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// IGDBUpdate lists the igdb fields that may be changed at runtime. Nil
// fields are left alone.
type IGDBUpdate struct {
	TokenTimestamp   *string
	DataRefreshLimit *int
}

// UpdateIGDB applies u and saves the file. If saving fails the previous
// values are restored.
func (s *Store) UpdateIGDB(u IGDBUpdate) error {
	if u.DataRefreshLimit != nil && *u.DataRefreshLimit < 0 {
		return apperror.ValidationFailed("data_refresh_limit", "data_refresh_limit must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return ErrNotLoaded
	}

	previous := s.snap.IGDB
	if u.TokenTimestamp != nil {
		s.snap.IGDB.TokenTimestamp = *u.TokenTimestamp
	}
	if u.DataRefreshLimit != nil {
		s.snap.IGDB.DataRefreshLimit = *u.DataRefreshLimit
	}

	if err := s.saveLocked(); err != nil {
		s.snap.IGDB = previous
		return err
	}
	return nil
}

// updatableFields is the per-section allow-list for Update.
var updatableFields = map[string][]string{
	SectionIGDB:     {"token_timestamp", "data_refresh_limit"},
	SectionServer:   {},
	SectionDatabase: {},
}

// Update is the by-name form of the typed updates, for callers holding
// loosely typed input such as decoded JSON. Every field is checked against
// the section's allow-list before anything changes.
func (s *Store) Update(section string, fields map[string]any) error {
	allowed, ok := updatableFields[section]
	if !ok {
		return apperror.ValidationFailed("section", fmt.Sprintf("unknown configuration section: %s", section))
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !contains(allowed, name) {
			return apperror.ValidationFailed(name, fmt.Sprintf(
				"field '%s' is not updatable in section '%s'; allowed fields: %s",
				name, section, strings.Join(allowed, ", ")))
		}
	}

	switch section {
	case SectionIGDB:
		var u IGDBUpdate
		if raw, ok := fields["token_timestamp"]; ok {
			ts, err := cast.ToStringE(raw)
			if err != nil {
				return apperror.ValidationFailed("token_timestamp", "token_timestamp must be a string")
			}
			u.TokenTimestamp = &ts
		}
		if raw, ok := fields["data_refresh_limit"]; ok {
			limit, err := cast.ToIntE(raw)
			if err != nil {
				return apperror.ValidationFailed("data_refresh_limit", "data_refresh_limit must be an integer")
			}
			u.DataRefreshLimit = &limit
		}
		return s.UpdateIGDB(u)
	default:
		// Sections with an empty allow-list only accept an empty update,
		// which still persists the file.
		return s.Save()
	}
}

// Save writes the current snapshot to the configuration file, creating its
// directory if needed. Credentials are never written.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return ErrNotLoaded
	}
	return s.saveLocked()
}

// persistedConfig is the on-disk layout.
type persistedConfig struct {
	IGDB      IGDBConfig  `json:"igdb"`
	Server    any         `json:"server"`
	WebUI     WebUIConfig `json:"web_ui"`
	Database  any         `json:"database"`
	Platforms []string    `json:"platforms,omitempty"`
}

func (s *Store) saveLocked() error {
	out := persistedConfig{
		IGDB:      s.snap.IGDB,
		Server:    struct{}{},
		WebUI:     s.snap.WebUI,
		Database:  struct{}{},
		Platforms: s.snap.Platforms,
	}
	if s.opts.Variant == VariantLenient {
		out.Server = s.snap.Server
		out.Database = s.snap.Database
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("config: encoding configuration: %w", err)
	}

	path := s.opts.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: failed to save configuration file '%s': %w", path, err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("config: failed to save configuration file '%s': %w", path, err)
	}
	return nil
}
