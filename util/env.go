package util

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// MergeEnv merges override variables on top of the parent environment.
// Overrides win over inherited values for the same variable name. When
// clear is true the parent environment is not inherited at all.
// A nil return means "inherit the parent environment unchanged", which is
// what exec.Cmd does with a nil Env.
func MergeEnv(overrides map[string]string, clear bool) []string {
	if len(overrides) == 0 && !clear {
		return nil
	}

	merged := make(map[string]string)
	if !clear {
		for _, kv := range os.Environ() {
			if i := strings.IndexByte(kv, '='); i >= 0 {
				merged[kv[:i]] = kv[i+1:]
			}
		}
	}
	for k, v := range overrides {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	// Deterministic order keeps spawn behavior reproducible in tests.
	sort.Strings(env)
	return env
}

// SplitEnv splits a KEY=VALUE pair. ok is false when there is no '='.
func SplitEnv(kv string) (key, value string, ok bool) {
	i := strings.IndexByte(kv, '=')
	if i < 0 {
		return "", "", false
	}
	return kv[:i], kv[i+1:], true
}
