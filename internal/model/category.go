package model

// Categories lists the vendor specialism options, keyed by their code.
// The code is sent as SpecialismId when a project is created.
var Categories = map[int]string{
	1:  "Generic / Universal",
	2:  "Agriculture & Horticulture",
	3:  "Architecture & Construction",
	4:  "Arts & Culture",
	5:  "Automotive & Transport",
	6:  "Banking & Finance",
	7:  "Business & Commerce",
	8:  "Communication & Media",
	9:  "Compliance",
	10: "Computer Hardware & Telecommunications",
	11: "Computer Software & Networking",
	12: "Electrical Engineering / Electronics",
	13: "Energy & Environment",
	14: "Food & Drink",
	15: "General Healthcare",
	16: "Law & Legal",
	17: "Manufacturing / Industry",
	18: "Marketing, Advertising & Fashion",
	19: "Mechanical Engineering / Machinery",
	20: "Military & Defence",
	21: "Pharmaceutical & Clinical trials",
	22: "Science & Chemicals",
	23: "Specialist Healthcare (Machinery)",
	24: "Specialist Healthcare (Practise)",
	25: "Sports, Entertainment & Gaming",
	26: "Travel Hospitality & Tourism",
	27: "UK Gov (EU based)",
	28: "UK Government",
	29: "Veterinary Sciences",
}

// ValidCategory reports whether code is a known specialism code.
func ValidCategory(code int) bool {
	_, ok := Categories[code]
	return ok
}
