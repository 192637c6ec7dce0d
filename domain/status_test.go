package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusSeverity(t *testing.T) {
	tests := []struct {
		status Status
		want   int
	}{
		{StatusSuccess, 0},
		{StatusRebuilding, 1},
		{StatusFailure, 2},
		{StatusDown, 3},
		{Status(""), 0},
		{Status("exception"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.Severity())
		})
	}
}

func TestWorst_Commutative(t *testing.T) {
	for _, a := range StatusOrder {
		for _, b := range StatusOrder {
			want := a
			if b.Severity() > a.Severity() {
				want = b
			}
			assert.Equal(t, want, Worst(a, b), "Worst(%s, %s)", a, b)
			assert.Equal(t, Worst(a, b), Worst(b, a), "Worst(%s, %s) is not commutative", a, b)
		}
	}
}

func TestWorst_FoldOverPermutations(t *testing.T) {
	statuses := []Status{StatusRebuilding, StatusSuccess, StatusFailure, StatusSuccess}
	permutations := [][]Status{
		statuses,
		{StatusSuccess, StatusSuccess, StatusRebuilding, StatusFailure},
		{StatusFailure, StatusRebuilding, StatusSuccess, StatusSuccess},
	}

	for _, p := range permutations {
		folded := Status("")
		for _, s := range p {
			folded = Worst(folded, s)
		}
		assert.Equal(t, StatusFailure, folded)
		assert.Equal(t, StatusFailure, Worst(p...))
	}

	assert.Equal(t, StatusDown, Worst(StatusDown, StatusDown))
}

func TestWorst_UnknownValues(t *testing.T) {
	assert.Equal(t, StatusSuccess, Worst())
	assert.Equal(t, StatusSuccess, Worst("", "exception"))
	assert.Equal(t, StatusRebuilding, Worst("exception", StatusRebuilding))
}

func TestNormalizeActivity(t *testing.T) {
	tests := []struct {
		name         string
		activity     string
		status       string
		wantActivity string
		wantStatus   Status
	}{
		{
			name:         "unknown activity and status",
			activity:     "unknown",
			status:       "unknown",
			wantActivity: "queued",
			wantStatus:   StatusFailure,
		},
		{
			name:         "building after failure is rebuilding",
			activity:     "building",
			status:       "failure",
			wantActivity: "building",
			wantStatus:   StatusRebuilding,
		},
		{
			name:         "mixed case is lowercased",
			activity:     "CheckingModifications",
			status:       "Success",
			wantActivity: "checkingmodifications",
			wantStatus:   StatusSuccess,
		},
		{
			name:         "building with unknown status is rebuilding",
			activity:     "Building",
			status:       "Unknown",
			wantActivity: "building",
			wantStatus:   StatusRebuilding,
		},
		{
			name:         "sleeping failure stays failure",
			activity:     "Sleeping",
			status:       "Failure",
			wantActivity: "sleeping",
			wantStatus:   StatusFailure,
		},
		{
			name:         "empty values",
			activity:     "",
			status:       "",
			wantActivity: "",
			wantStatus:   Status(""),
		},
		{
			name:         "unrecognized status passes through",
			activity:     "Sleeping",
			status:       "Exception",
			wantActivity: "sleeping",
			wantStatus:   Status("exception"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activity, status := NormalizeActivity(tt.activity, tt.status)
			assert.Equal(t, tt.wantActivity, activity)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}
