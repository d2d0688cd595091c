package scanner

import "videotheque/models"

// Certification-to-age lookup tables. Codes missing from a table contribute
// nothing; "no rating" codes are deliberately absent.

var movieAudienceTable = map[string]map[string]int{
	"US": {"G": 0, "PG": 10, "PG-13": 12, "R": 16, "NC-17": 18},
	"FR": {"U": 0, "10": 10, "12": 12, "16": 16, "18": 18},
}

var showAudienceTable = map[string]map[string]int{
	"US": {"TV-Y": 0, "TV-Y7": 0, "TV-G": 10, "TV-PG": 10, "TV-14": 12, "TV-MA": 16},
	"ES": {"TP": 0, "7": 0, "10": 10, "12": 12, "13": 12, "16": 16, "18": 18},
	"FR": {"10": 10, "12": 12, "16": 16, "18": 18},
}

// ClassifyMovie maps a movie's country certifications to age ratings. Only
// US and FR entries are consulted.
func ClassifyMovie(certs []models.CountryCert) []int {
	return classify(movieAudienceTable, certs)
}

// ClassifyShow maps a show's country ratings to age ratings. US, ES and FR
// entries are consulted.
func ClassifyShow(ratings []models.CountryCert) []int {
	return classify(showAudienceTable, ratings)
}

func classify(table map[string]map[string]int, certs []models.CountryCert) []int {
	var ages []int
	for _, c := range certs {
		if codes, ok := table[c.Country]; ok {
			if age, ok := codes[c.Code]; ok {
				ages = append(ages, age)
			}
		}
	}
	return ages
}

// MovieAudience reduces classifier output for a movie: the highest
// applicable rating wins. With no applicable rating the current value is
// kept, so a human-set audience is never overwritten.
func MovieAudience(certs []models.CountryCert, current int) int {
	ages := ClassifyMovie(certs)
	if len(ages) == 0 || current != models.UnsetAudience {
		return current
	}
	max := ages[0]
	for _, a := range ages[1:] {
		if a > max {
			max = a
		}
	}
	return max
}

// ShowAudience reduces classifier output for a show: unlike movies, the
// lowest applicable rating wins when several countries rated it. This
// asymmetry is intentional.
func ShowAudience(ratings []models.CountryCert, current int) int {
	ages := ClassifyShow(ratings)
	if len(ages) == 0 || current != models.UnsetAudience {
		return current
	}
	min := ages[0]
	for _, a := range ages[1:] {
		if a < min {
			min = a
		}
	}
	return min
}
