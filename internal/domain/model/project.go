package model

// ProjectCatalog is the raw catalog snapshot fetched from the catalog
// store: the full definition set of one project together with the highest
// published version. The resolver derives version-scoped CatalogViews
// from it.
type ProjectCatalog struct {
	ProjectID  string
	Name       string
	MaxVersion int

	Skills       []Skill
	Subjects     []Subject
	SubjectOrder []string
	Badges       []Badge
	Edges        []DependencyEdge

	Levels        []int
	SubjectLevels map[string][]int
}
