package manifest

import "testing"

func TestMacroPrefixFor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"pyodbc", "PYODBC"},
		{"np-odbc", "NP_ODBC"},
		{"my.driver", "MY_DRIVER"},
		{"odbc2", "ODBC2"},
		{"2odbc", "_2ODBC"},
		{"a_b", "A_B"},
	}
	for _, tc := range tests {
		if got := MacroPrefixFor(tc.name); got != tc.want {
			t.Errorf("MacroPrefixFor(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
