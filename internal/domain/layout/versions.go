package layout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DefaultSavedVersion is assumed for layouts written before versions were
// stamped.
const DefaultSavedVersion = "1.0.0"

// Versions are the four stamps kept per layout.
type Versions struct {
	PluginCreated    string `json:"plugin_version_created"`
	PluginSaved      string `json:"plugin_version_saved"`
	FrameworkCreated string `json:"framework_version_created"`
	FrameworkSaved   string `json:"framework_version_saved"`
}

// CompareVersions returns -1, 0 or +1. "2.0", "2.0.0" and "v2.0.0" are
// equivalent; unparsable versions sort before every valid one.
func CompareVersions(a, b string) int {
	return semver.Compare(canonical(a), canonical(b))
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

// ReadVersions loads the stamps of a layout. A missing plugin saved stamp
// reads as DefaultSavedVersion.
func ReadVersions(ctx context.Context, s MetaStore, layoutID string) (Versions, error) {
	var v Versions
	fields := []struct {
		key string
		dst *string
	}{
		{MetaPluginVersionCreated, &v.PluginCreated},
		{MetaPluginVersionSaved, &v.PluginSaved},
		{MetaFrameworkVersionCreated, &v.FrameworkCreated},
		{MetaFrameworkVersionSaved, &v.FrameworkSaved},
	}
	for _, f := range fields {
		val, err := readString(ctx, s, layoutID, f.key)
		if err != nil {
			return Versions{}, err
		}
		*f.dst = val
	}
	if v.PluginSaved == "" {
		v.PluginSaved = DefaultSavedVersion
	}
	return v, nil
}

// StampCreated writes the created and saved stamps of a new layout.
func StampCreated(ctx context.Context, s MetaStore, layoutID, framework string) error {
	for key, val := range map[string]string{
		MetaPluginVersionCreated:    PluginVersion,
		MetaPluginVersionSaved:      PluginVersion,
		MetaFrameworkVersionCreated: framework,
		MetaFrameworkVersionSaved:   framework,
	} {
		if err := writeString(ctx, s, layoutID, key, val); err != nil {
			return err
		}
	}
	return nil
}

// StampSaved records the versions that saved the layout. Stored stamps never
// move backwards: a layout saved by a newer version keeps that stamp.
func StampSaved(ctx context.Context, s MetaStore, layoutID, plugin, framework string) error {
	if err := raiseStamp(ctx, s, layoutID, MetaPluginVersionSaved, plugin); err != nil {
		return err
	}
	if framework == "" {
		return nil
	}
	return raiseStamp(ctx, s, layoutID, MetaFrameworkVersionSaved, framework)
}

func raiseStamp(ctx context.Context, s MetaStore, layoutID, key, version string) error {
	cur, err := readString(ctx, s, layoutID, key)
	if err != nil {
		return err
	}
	if cur != "" && CompareVersions(cur, version) >= 0 {
		return nil
	}
	return writeString(ctx, s, layoutID, key, version)
}

func readString(ctx context.Context, s MetaStore, layoutID, key string) (string, error) {
	raw, err := s.GetMeta(ctx, layoutID, key)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		// stamps written as bare numbers, e.g. 2.0
		return strings.Trim(strings.TrimSpace(string(raw)), `"`), nil
	}
	return out, nil
}

func writeString(ctx context.Context, s MetaStore, layoutID, key, val string) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	if err := s.SetMeta(ctx, layoutID, key, raw); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
