package biblio

import "strings"

// Contribution records that a source offered value for a scheme.
type Contribution struct {
	Source string
	Value  string
}

// ClassificationSet accumulates candidates from many fragments during one
// resolution. It is not safe for concurrent use; callers merge only after
// every contributing call has finished.
type ClassificationSet struct {
	LC       []string `json:"lc_candidates"`
	Dewey    []string `json:"dewey_candidates"`
	UDC      []string `json:"udc_candidates"`
	Subjects []string `json:"subjects"`
	Sources  []string `json:"sources"`

	contributions map[Scheme][]Contribution
}

// NewClassificationSet returns an empty accumulator.
func NewClassificationSet() *ClassificationSet {
	return &ClassificationSet{contributions: make(map[Scheme][]Contribution)}
}

// Candidates returns the ordered candidate list for scheme s.
func (c *ClassificationSet) Candidates(s Scheme) []string {
	if c == nil {
		return nil
	}
	return *c.slot(s)
}

// Contributions returns every (source, value) pair merged for scheme s,
// including repeats of values already present in Candidates.
func (c *ClassificationSet) Contributions(s Scheme) []Contribution {
	if c == nil {
		return nil
	}
	return c.contributions[s]
}

func (c *ClassificationSet) slot(s Scheme) *[]string {
	switch s {
	case SchemeDewey:
		return &c.Dewey
	case SchemeUDC:
		return &c.UDC
	default:
		return &c.LC
	}
}

// Merge folds f into the set. Scheme values and subjects are appended only
// when non-blank and not already present; the source name is always
// appended.
func (c *ClassificationSet) Merge(f *Fragment) {
	if f == nil {
		return
	}
	if c.contributions == nil {
		c.contributions = make(map[Scheme][]Contribution)
	}
	for _, s := range Schemes {
		v := strings.TrimSpace(f.Value(s))
		if v == "" {
			continue
		}
		c.contributions[s] = append(c.contributions[s], Contribution{Source: f.Source, Value: v})
		slot := c.slot(s)
		*slot = appendUnique(*slot, v)
	}
	for _, subject := range f.Subjects {
		if subject = strings.TrimSpace(subject); subject != "" {
			c.Subjects = appendUnique(c.Subjects, subject)
		}
	}
	c.Sources = append(c.Sources, f.Source)
}

// MergeSet folds another accumulator into c with the same rules as Merge.
func (c *ClassificationSet) MergeSet(other *ClassificationSet) {
	if other == nil {
		return
	}
	if c.contributions == nil {
		c.contributions = make(map[Scheme][]Contribution)
	}
	for _, s := range Schemes {
		slot := c.slot(s)
		for _, v := range other.Candidates(s) {
			*slot = appendUnique(*slot, v)
		}
		c.contributions[s] = append(c.contributions[s], other.contributions[s]...)
	}
	for _, subject := range other.Subjects {
		c.Subjects = appendUnique(c.Subjects, subject)
	}
	c.Sources = append(c.Sources, other.Sources...)
}

// IsEmpty reports whether no scheme has a candidate and no subject heading
// was collected.
func (c *ClassificationSet) IsEmpty() bool {
	if c == nil {
		return true
	}
	return len(c.LC) == 0 && len(c.Dewey) == 0 && len(c.UDC) == 0 && len(c.Subjects) == 0
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// DedupStrings returns values without repeats, keeping first-seen order.
func DedupStrings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = appendUnique(out, v)
	}
	return out
}
