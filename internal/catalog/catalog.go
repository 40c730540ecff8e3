package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the produce group a catalog label belongs to.
type Kind int

const (
	Fruit Kind = iota
	Vegetable
)

// Group names as shown to users.
const (
	GroupFruits     = "Fruits"
	GroupVegetables = "Vegetables"
)

func (k Kind) Group() string {
	if k == Vegetable {
		return GroupVegetables
	}
	return GroupFruits
}

func (k Kind) String() string {
	if k == Vegetable {
		return "vegetable"
	}
	return "fruit"
}

// Entry maps one classifier output index to its label.
type Entry struct {
	Index int
	Name  string
	Kind  Kind
}

// DisplayName returns the label with its first letter upper-cased and the rest lower-cased.
func (e Entry) DisplayName() string {
	return Capitalize(e.Name)
}

// entries is ordered by classifier output index.
var entries = [...]Entry{
	{0, "apple", Fruit},
	{1, "banana", Fruit},
	{2, "beetroot", Vegetable},
	{3, "bell pepper", Vegetable},
	{4, "cabbage", Vegetable},
	{5, "capsicum", Vegetable},
	{6, "carrot", Vegetable},
	{7, "cauliflower", Vegetable},
	{8, "chilli pepper", Vegetable},
	{9, "corn", Vegetable},
	{10, "cucumber", Vegetable},
	{11, "eggplant", Vegetable},
	{12, "garlic", Vegetable},
	{13, "ginger", Vegetable},
	{14, "grapes", Fruit},
	{15, "jalepeno", Vegetable},
	{16, "kiwi", Fruit},
	{17, "lemon", Vegetable},
	{18, "lettuce", Vegetable},
	{19, "mango", Fruit},
	{20, "onion", Vegetable},
	{21, "orange", Fruit},
	{22, "paprika", Vegetable},
	{23, "pear", Fruit},
	{24, "peas", Vegetable},
	{25, "pineapple", Fruit},
	{26, "pomegranate", Fruit},
	{27, "potato", Vegetable},
	{28, "raddish", Vegetable},
	{29, "soy beans", Vegetable},
	{30, "spinach", Vegetable},
	{31, "sweetcorn", Vegetable},
	{32, "sweetpotato", Vegetable},
	{33, "tomato", Vegetable},
	{34, "turnip", Vegetable},
	{35, "watermelon", Fruit},
}

var (
	fruits     = map[string]struct{}{}
	vegetables = map[string]struct{}{}
)

func init() {
	for _, e := range entries {
		key := normalize(e.Name)
		if e.Kind == Vegetable {
			vegetables[key] = struct{}{}
		} else {
			fruits[key] = struct{}{}
		}
	}
}

// Size is the number of classes the model must emit.
func Size() int {
	return len(entries)
}

// Lookup returns the entry for a classifier output index.
func Lookup(index int) (Entry, bool) {
	if index < 0 || index >= len(entries) {
		return Entry{}, false
	}
	return entries[index], true
}

// Entries returns a copy of the catalog in index order.
func Entries() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries[:])
	return out
}

// Fruits returns the fruit membership set as display names.
func Fruits() []string {
	return namesOf(Fruit)
}

// Vegetables returns the vegetable membership set as display names.
func Vegetables() []string {
	return namesOf(Vegetable)
}

// IsVegetable reports whether name is in the vegetable membership set. Matching ignores case
// and surrounding whitespace.
func IsVegetable(name string) bool {
	_, ok := vegetables[normalize(name)]
	return ok
}

// IsFruit reports whether name is in the fruit membership set.
func IsFruit(name string) bool {
	_, ok := fruits[normalize(name)]
	return ok
}

// GroupOf applies the binary grouping policy to an arbitrary label: Vegetables iff the
// label is a known vegetable, Fruits otherwise. Labels outside the catalog fall into
// Fruits; callers holding an Entry should use Entry.Kind instead.
func GroupOf(name string) string {
	if IsVegetable(name) {
		return GroupVegetables
	}
	return GroupFruits
}

// Capitalize upper-cases the first letter of s and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

func namesOf(kind Kind) []string {
	var out []string
	for _, e := range entries {
		if e.Kind == kind {
			out = append(out, e.DisplayName())
		}
	}
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
