package profile

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/cleanse/internal/core"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CLEANSE_"

// Load builds a profile from, in increasing precedence: defaults, the YAML
// file at path (skipped when empty), CLEANSE_* environment variables and the
// flags in fs that were set explicitly. Flag names are kebab-case versions
// of the keys, so --outlier-method sets outlier_method.
func Load(path string, fs *pflag.FlagSet) (*Profile, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read profile %s: %w", path, err)
		}
	}

	// CLEANSE_OUTLIER_METHOD -> outlier_method
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	return decode(k)
}

// FromValues builds a profile from defaults overlaid with query parameters.
func FromValues(q url.Values) (*Profile, error) {
	return Overlay(Defaults(), q)
}

// Overlay returns base with the query parameters in q applied on top.
// Repeated or comma-separated values fill list keys. Unknown keys and keys
// that need structured values are rejected; the structured fields of base
// are kept as they are.
func Overlay(base Profile, q url.Values) (*Profile, error) {
	known := flatMap(base)
	overlay := make(map[string]any, len(q))
	var unknown []string
	for key, vals := range q {
		if _, ok := known[key]; !ok {
			unknown = append(unknown, key)
			continue
		}
		if _, isList := known[key].([]string); isList {
			var items []string
			for _, v := range vals {
				items = append(items, splitList(v)...)
			}
			overlay[key] = items
			continue
		}
		overlay[key] = vals[len(vals)-1]
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &core.Error{
			Kind:   core.ErrConfiguration,
			Stage:  core.StageConfig,
			Reason: fmt.Sprintf("unknown profile %s: %s", plural(len(unknown), "key", "keys"), strings.Join(unknown, ", ")),
		}
	}

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(known, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if err := k.Load(confmap.Provider(overlay, "."), nil); err != nil {
		return nil, fmt.Errorf("load parameters: %w", err)
	}
	p, err := decode(k)
	if err != nil {
		return nil, err
	}
	p.TypeDefaults = base.TypeDefaults
	p.Overrides = base.Overrides
	p.Rules = base.Rules
	return p, nil
}

// Keys returns every flat profile key in sorted order.
func Keys() []string {
	m := defaultMap()
	keys := make([]string, 0, len(m)+len(structuredKeys))
	for k := range m {
		keys = append(keys, k)
	}
	for k := range structuredKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func decode(k *koanf.Koanf) (*Profile, error) {
	var p Profile
	err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			WeaklyTypedInput: true,
			Result:           &p,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, &core.Error{Kind: core.ErrConfiguration, Stage: core.StageConfig, Reason: fmt.Sprintf("decode profile: %v", err)}
	}
	for _, list := range []*[]string{
		&p.MissingColumns, &p.Subset, &p.CoerceColumns, &p.TextColumns,
		&p.EmailColumns, &p.PhoneColumns, &p.OutlierColumns,
	} {
		*list = trimList(*list)
	}
	return &p, nil
}

func splitList(s string) []string {
	return trimList(strings.Split(s, ","))
}

// trimList trims items and drops empty ones. An empty result is nil.
func trimList(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
