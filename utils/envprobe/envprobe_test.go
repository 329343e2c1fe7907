package envprobe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func fakeEnv(vars map[string]string) func(string) string {
	return func(name string) string {
		return vars[name]
	}
}

func TestAutoInstallDisabled(t *testing.T) {
	t.Parallel()

	probe := New().WithGetenv(fakeEnv(map[string]string{}))
	require.False(t, probe.AutoInstallDisabled())

	probe = New().WithGetenv(fakeEnv(map[string]string{DisableEnvVar: "1"}))
	require.True(t, probe.AutoInstallDisabled())

	probe = New().WithGetenv(fakeEnv(map[string]string{DisableEnvVar: "   "}))
	require.False(t, probe.AutoInstallDisabled())
}

func TestIsCI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		vars map[string]string
		want bool
	}{
		{name: "no indicators", vars: map[string]string{}, want: false},
		{name: "generic CI flag", vars: map[string]string{"CI": "true"}, want: true},
		{name: "github actions", vars: map[string]string{"GITHUB_ACTIONS": "true"}, want: true},
		{name: "gitlab", vars: map[string]string{"GITLAB_CI": "true"}, want: true},
		{name: "jenkins", vars: map[string]string{"JENKINS_URL": "http://jenkins"}, want: true},
		{name: "empty value ignored", vars: map[string]string{"CI": ""}, want: false},
		{name: "whitespace ignored", vars: map[string]string{"TRAVIS": "  "}, want: false},
		{name: "unrelated vars", vars: map[string]string{"HOME": "/root"}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			probe := New().WithGetenv(fakeEnv(tt.vars))
			require.Equal(t, tt.want, probe.IsCI())
		})
	}
}

func TestZeroValueReadsProcessEnv(t *testing.T) {
	probe := &Probe{}
	t.Setenv(DisableEnvVar, "yes")
	require.True(t, probe.AutoInstallDisabled())
}
