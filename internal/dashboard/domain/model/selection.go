package model

import "sort"

// Selection is an immutable set of question and answer ids.
// Every operation returns a new Selection and leaves the receiver untouched.
type Selection struct {
	questions map[string]struct{}
	answers   map[string]struct{}
}

func NewSelection(questions, answers []string) Selection {
	s := Selection{
		questions: make(map[string]struct{}, len(questions)),
		answers:   make(map[string]struct{}, len(answers)),
	}
	for _, q := range questions {
		if q != "" {
			s.questions[q] = struct{}{}
		}
	}
	for _, a := range answers {
		if a != "" {
			s.answers[a] = struct{}{}
		}
	}
	return s
}

func (s Selection) clone() Selection {
	out := Selection{
		questions: make(map[string]struct{}, len(s.questions)),
		answers:   make(map[string]struct{}, len(s.answers)),
	}
	for k := range s.questions {
		out.questions[k] = struct{}{}
	}
	for k := range s.answers {
		out.answers[k] = struct{}{}
	}
	return out
}

// Union returns the ids present in either selection.
func (s Selection) Union(other Selection) Selection {
	out := s.clone()
	for k := range other.questions {
		out.questions[k] = struct{}{}
	}
	for k := range other.answers {
		out.answers[k] = struct{}{}
	}
	return out
}

// ToggleQuestion adds id when absent and removes it when present.
func (s Selection) ToggleQuestion(id string) Selection {
	out := s.clone()
	toggle(out.questions, id)
	return out
}

func (s Selection) ToggleAnswer(id string) Selection {
	out := s.clone()
	toggle(out.answers, id)
	return out
}

func toggle(set map[string]struct{}, id string) {
	if id == "" {
		return
	}
	if _, ok := set[id]; ok {
		delete(set, id)
		return
	}
	set[id] = struct{}{}
}

func (s Selection) HasQuestion(id string) bool {
	_, ok := s.questions[id]
	return ok
}

func (s Selection) HasAnswer(id string) bool {
	_, ok := s.answers[id]
	return ok
}

func (s Selection) Len() int {
	return len(s.questions) + len(s.answers)
}

// Questions returns the question ids in sorted order.
func (s Selection) Questions() []string {
	return sortedKeys(s.questions)
}

// Answers returns the answer ids in sorted order.
func (s Selection) Answers() []string {
	return sortedKeys(s.answers)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SelectionDTO is the wire form of a Selection.
type SelectionDTO struct {
	Questions []string `json:"questions"`
	Answers   []string `json:"answers"`
}

func (s Selection) DTO() SelectionDTO {
	return SelectionDTO{Questions: s.Questions(), Answers: s.Answers()}
}

func (d SelectionDTO) Selection() Selection {
	return NewSelection(d.Questions, d.Answers)
}
