package dataset

import "bpih-platform/internal/models"

// Keppres returns the BPIH figures published by presidential decree, one record
// per hajj season. 2021 is absent because no cost was published that year.
func Keppres() []models.YearRecord {
	return []models.YearRecord{
		record(2016, "1437H", "Keputusan Presiden No. 21 Tahun 2016", 34127046, 34941414, 31672827, 38905808, 31117461, 34152912),
		record(2017, "1438H", "Keputusan Presiden No. 8 Tahun 2017", 34306780, 35666250, 31707400, 38972250, 31040900, 34338716),
		record(2018, "1439H", "Keputusan Presiden No. 7 Tahun 2018", 34532190, 36091845, 31840375, 39507741, 31090010, 34612432),
		record(2019, "1440H", "Keputusan Presiden No. 8 Tahun 2019", 34987280, 36586945, 31730375, 39207741, 30881010, 34678670),
		record(2020, "1441H", "Keputusan Presiden No. 6 Tahun 2020", 34772602, 37577602, 32172602, 38352602, 31454602, 34865802),
		record(2022, "1443H", "Keputusan Presiden No. 5 Tahun 2022", 39886009, 42586009, 36393073, 42686506, 35660857, 39442491),
		record(2023, "1444H", "Keputusan Presiden No. 7 Tahun 2023", 91575945, 96166395, 85439589, 92420640, 84602294, 90040973),
		record(2024, "1445H", "Keputusan Presiden No. 6 Tahun 2024", 95862448, 97890448, 88509253, 97609469, 87359984, 93446320),
		record(2025, "1446H", "Keputusan Presiden No. 6 Tahun 2025", 92854259, 94934259, 81955039, 91649429, 80900841, 88458765),
	}
}

func record(year int, hijri, decree string, jakarta, surabaya, medan, makassar, aceh, average float64) models.YearRecord {
	return models.YearRecord{
		Year:       year,
		HijriLabel: hijri,
		Decree:     decree,
		RegionalCosts: map[models.Region]float64{
			models.RegionJakarta:  jakarta,
			models.RegionSurabaya: surabaya,
			models.RegionMedan:    medan,
			models.RegionMakassar: makassar,
			models.RegionAceh:     aceh,
		},
		NationalAverage: average,
	}
}
