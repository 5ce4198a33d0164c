package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"

	"github.com/jonnyvector/send-buddy-sub000/matching"
)

// Grade conversion between display grades ("5.10a", "6b+", "V3") and the
// normalized 0-100 scores stored on discipline profiles. The ladder lives in
// the grade_conversions table; one row per score holds the grade in each
// system.

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	ydsRe    = regexp.MustCompile(`([0-9]+)\.([0-9]+)([a-dA-D]?)`)
	frenchRe = regexp.MustCompile(`([4-9])([a-cA-C])(\+?)`)
	vRe      = regexp.MustCompile(`^[vV]`)
)

// normalizeGrade fixes the common ways users type grades so lookups hit the
// table: "5.10A" → "5.10a", "6A+" → "6a+", "v3" / "V 3" → "V3".
func normalizeGrade(grade string, system matching.GradeSystem) string {
	grade = strings.TrimSpace(grade)
	grade = spaceRe.ReplaceAllString(grade, "")

	switch system {
	case matching.GradeSystemYDS:
		grade = ydsRe.ReplaceAllStringFunc(grade, func(m string) string {
			parts := ydsRe.FindStringSubmatch(m)
			return parts[1] + "." + parts[2] + strings.ToLower(parts[3])
		})
	case matching.GradeSystemFrench:
		grade = frenchRe.ReplaceAllStringFunc(grade, func(m string) string {
			parts := frenchRe.FindStringSubmatch(m)
			return parts[1] + strings.ToLower(parts[2]) + parts[3]
		})
	case matching.GradeSystemVScale:
		grade = vRe.ReplaceAllString(grade, "V")
	}
	return grade
}

// gradeSystemColumn maps a grade system to its grade_conversions column.
// The map doubles as validation; never interpolate an unchecked value.
func gradeSystemColumn(system matching.GradeSystem) (string, error) {
	columns := map[matching.GradeSystem]string{
		matching.GradeSystemYDS:    "yds_grade",
		matching.GradeSystemFrench: "french_grade",
		matching.GradeSystemVScale: "v_scale_grade",
	}
	col, ok := columns[system]
	if !ok {
		return "", fmt.Errorf("unknown grade system %q", system)
	}
	return col, nil
}

// gradeToScore converts a display grade to its normalized score. Unknown
// grades are an error so bad profile input surfaces instead of silently
// scoring 0.
func gradeToScore(db *sql.DB, display string, system matching.GradeSystem, discipline matching.Discipline) (int, error) {
	col, err := gradeSystemColumn(system)
	if err != nil {
		return 0, err
	}
	normalized := normalizeGrade(display, system)

	var score int
	err = db.QueryRow(
		`SELECT score FROM grade_conversions WHERE discipline = $1 AND `+col+` = $2`,
		discipline, normalized,
	).Scan(&score)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("grade %q not found in %s for %s", normalized, system, discipline)
	} else if err != nil {
		return 0, err
	}
	return score, nil
}

// scoreToGrade converts a score back to the closest display grade at or below
// it. Returns "" when the ladder has no grade that low.
func scoreToGrade(db *sql.DB, score int, system matching.GradeSystem, discipline matching.Discipline) (string, error) {
	col, err := gradeSystemColumn(system)
	if err != nil {
		return "", err
	}

	var grade string
	err = db.QueryRow(
		`SELECT `+col+` FROM grade_conversions
		 WHERE discipline = $1 AND score <= $2
		 ORDER BY score DESC
		 LIMIT 1`,
		discipline, score,
	).Scan(&grade)
	if err == sql.ErrNoRows {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return grade, nil
}

// A dispatcher router function for all /grades... requests
func gradesRouter(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(r.URL.Path, "/")
		parts := strings.Split(path, "/")
		if len(parts) < 1 || parts[0] != "grades" {
			http.NotFound(w, r)
			return
		}

		// GET /grades → the conversion ladder for one discipline
		if len(parts) == 1 {
			gradeLadderHandler(db).ServeHTTP(w, r)
			return
		}

		// GET /grades/score → convert one display grade to a score
		if len(parts) == 2 && parts[1] == "score" {
			gradeScoreHandler(db).ServeHTTP(w, r)
			return
		}

		http.NotFound(w, r)
	}
}

// GET /grades?discipline=sport
// Returns the grade ladder for a discipline with all three systems side by
// side, ordered easiest first. The frontend grade pickers consume this.
func gradeLadderHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		discipline := matching.Discipline(r.URL.Query().Get("discipline"))
		if discipline == "" {
			discipline = matching.DisciplineSport
		}

		rows, err := db.Query(`
			SELECT score, yds_grade, french_grade, v_scale_grade
			FROM grade_conversions
			WHERE discipline = $1
			ORDER BY score
		`, discipline)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("gradeLadderHandler query error:", err)
			return
		}
		defer rows.Close()

		type gradeRow struct {
			Score  int    `json:"score"`
			YDS    string `json:"yds"`
			French string `json:"french"`
			VScale string `json:"v_scale"`
		}
		grades := []gradeRow{}
		for rows.Next() {
			var g gradeRow
			if err := rows.Scan(&g.Score, &g.YDS, &g.French, &g.VScale); err != nil {
				writeError(w, http.StatusInternalServerError, "db_error")
				log.Println("gradeLadderHandler scan error:", err)
				return
			}
			grades = append(grades, g)
		}
		if err := rows.Err(); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("gradeLadderHandler rows error:", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"discipline": discipline,
			"grades":     grades,
		})
	})
}

// GET /grades/score?grade=5.10a&system=yds&discipline=sport
// Converts one display grade to its normalized score.
func gradeScoreHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}

		raw := r.URL.Query().Get("grade")
		system := matching.GradeSystem(r.URL.Query().Get("system"))
		discipline := matching.Discipline(r.URL.Query().Get("discipline"))
		if raw == "" || system == "" || discipline == "" {
			writeError(w, http.StatusBadRequest, "missing_fields")
			return
		}

		score, err := gradeToScore(db, raw, system, discipline)
		if err != nil {
			writeError(w, http.StatusNotFound, "Grade not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"grade":      raw,
			"normalized": normalizeGrade(raw, system),
			"system":     system,
			"discipline": discipline,
			"score":      score,
		})
	})
}
