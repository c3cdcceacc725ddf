package stack

import "strings"

// Category is one of the four tech stack buckets.
type Category string

const (
	Languages  Category = "languages"
	Frameworks Category = "frameworks"
	Databases  Category = "databases"
	Tools      Category = "tools"
)

// Categories lists the buckets in output order.
var Categories = []Category{Languages, Frameworks, Databases, Tools}

var known = map[Category][]string{
	Languages: {
		"Python", "JavaScript", "TypeScript", "Java", "C++", "C#", "Go", "Rust", "Kotlin", "Swift",
		"Ruby", "PHP", "R", "Scala", "MATLAB", "SQL", "Bash", "Shell",
	},
	Frameworks: {
		"Django", "Flask", "FastAPI", "Spring", "Spring Boot", "React", "Next.js", "Angular", "Vue",
		"Express", "Node.js", ".NET", "ASP.NET", "Laravel", "Rails", "Svelte", "Nuxt", "NestJS",
		"PyTorch", "TensorFlow", "Keras", "scikit-learn", "XGBoost", "LightGBM", "pandas", "NumPy",
	},
	Databases: {
		"PostgreSQL", "MySQL", "SQLite", "MongoDB", "Redis", "Cassandra", "Elasticsearch", "Oracle",
		"SQL Server", "DynamoDB", "Snowflake", "BigQuery",
	},
	Tools: {
		"Docker", "Kubernetes", "AWS", "GCP", "Azure", "Git", "GitHub", "GitLab", "Bitbucket",
		"Terraform", "Ansible", "Jenkins", "Airflow", "Kafka", "RabbitMQ", "Nginx", "Linux", "VSCode",
	},
}

// aliases map informal spellings onto canonical vocabulary entries.
var aliases = map[string]string{
	"postgres":            "PostgreSQL",
	"postgresql":          "PostgreSQL",
	"postgre":             "PostgreSQL",
	"node":                "Node.js",
	"nodejs":              "Node.js",
	"reactjs":             "React",
	"nextjs":              "Next.js",
	"ms sql":              "SQL Server",
	"mssql":               "SQL Server",
	"google cloud":        "GCP",
	"gcloud":              "GCP",
	"amazon web services": "AWS",
	"azure devops":        "Azure",
	"k8s":                 "Kubernetes",
	"tf":                  "Terraform",
	"scikit learn":        "scikit-learn",
	"pytorch lightning":   "PyTorch",
	"ts":                  "TypeScript",
	"js":                  "JavaScript",
}

var nonTech = map[string]struct{}{
	"snake": {}, "cat": {}, "dog": {}, "human": {}, "food": {},
	"movie": {}, "music": {}, "song": {}, "dance": {},
}

// Entry is a canonical vocabulary item.
type Entry struct {
	Category Category
	Name     string
}

// Vocabulary is the case-folded lookup over the closed tech vocabulary.
type Vocabulary struct {
	index   map[string]Entry
	aliases map[string]Entry
	keys    []string
}

// DefaultVocabulary builds the lookup tables for the built-in vocabulary.
func DefaultVocabulary() *Vocabulary {
	v := &Vocabulary{
		index:   make(map[string]Entry),
		aliases: make(map[string]Entry),
	}

	for _, cat := range Categories {
		for _, name := range known[cat] {
			key := strings.ToLower(name)
			v.index[key] = Entry{Category: cat, Name: name}
			v.keys = append(v.keys, key)
		}
	}

	// Aliases pointing at anything outside the vocabulary are ignored.
	for alias, canon := range aliases {
		if e, ok := v.index[strings.ToLower(canon)]; ok {
			v.aliases[strings.ToLower(alias)] = e
		}
	}

	return v
}

// Names returns the canonical names for one category.
func Names(cat Category) []string {
	return append([]string(nil), known[cat]...)
}

// IsNonTech reports whether the case-folded token is on the stoplist.
func IsNonTech(token string) bool {
	_, ok := nonTech[strings.ToLower(strings.TrimSpace(token))]
	return ok
}
