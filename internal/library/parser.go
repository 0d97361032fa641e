package library

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ParsedName holds metadata extracted from a media file path
type ParsedName struct {
	ShowName   *string
	Season     *int
	Episode    *int
	Title      string
	ReleasedAt *time.Time
}

var (
	// "Show Name - S01E01" or "Show Name - S01E01 - Episode Title"
	patternDashed = regexp.MustCompile(`(?i)^(.+?)\s*-\s*[Ss](\d+)[Ee](\d+)`)

	// "Show.Name.S01E01", "Show Name S01E01", "Show_Name_S01E01"
	patternDotted = regexp.MustCompile(`(?i)^(.+?)[._ ][Ss](\d+)[Ee](\d+)`)

	// "Show.Name.1x01"
	patternCross = regexp.MustCompile(`(?i)^(.+?)[._ ](\d+)x(\d+)`)

	// season folder: "Season 1", "Season 01", "S01"
	patternSeasonDir = regexp.MustCompile(`(?i)(?:season|s)[\s.]?(\d+)`)

	// episode prefix inside a season folder: "01 -", "E01", "Episode 01"
	patternEpisodePrefix = regexp.MustCompile(`(?i)^(\d+)\s*-|^[Ee](\d+)|^episode[\s.]?(\d+)`)

	// "(1997)" or ".1997." style release year
	patternYear = regexp.MustCompile(`[.(\s](19\d{2}|20\d{2})[.)\s]`)

	whitespace = regexp.MustCompile(`\s+`)
)

// ParsePath extracts show, season, episode and release year from a
// media path. Patterns are tried on the filename first, then on the
// directory structure ("Show Name/Season 1/01 - Episode.mp4").
func ParsePath(fullPath string) ParsedName {
	var result ParsedName

	dir := filepath.Dir(fullPath)
	filename := filepath.Base(fullPath)
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	if matches := patternYear.FindStringSubmatch(name); matches != nil {
		if year, err := strconv.Atoi(matches[1]); err == nil {
			released := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			result.ReleasedAt = &released
		}
	}

	if matchFilename(name, &result) || matchDirectory(dir, name, &result) {
		result.Title = displayTitle(&result, name)
		return result
	}

	result.Title = cleanName(name)
	return result
}

func matchFilename(name string, result *ParsedName) bool {
	for _, pattern := range []*regexp.Regexp{patternDashed, patternDotted, patternCross} {
		if matches := pattern.FindStringSubmatch(name); matches != nil {
			showName := cleanName(matches[1])
			result.ShowName = &showName
			result.Season = parseIntPtr(matches[2])
			result.Episode = parseIntPtr(matches[3])
			return true
		}
	}
	return false
}

func matchDirectory(dirPath, name string, result *ParsedName) bool {
	if dirPath == "." || dirPath == "/" || dirPath == "" {
		return false
	}

	parts := strings.Split(filepath.ToSlash(dirPath), "/")
	if len(parts) < 2 {
		return false
	}

	seasonDir := parts[len(parts)-1]
	matches := patternSeasonDir.FindStringSubmatch(seasonDir)
	if matches == nil {
		return false
	}
	result.Season = parseIntPtr(matches[1])

	showName := cleanName(parts[len(parts)-2])
	result.ShowName = &showName

	if matches := patternEpisodePrefix.FindStringSubmatch(name); matches != nil {
		for i := 1; i < len(matches); i++ {
			if matches[i] != "" {
				result.Episode = parseIntPtr(matches[i])
				break
			}
		}
		return true
	}
	return false
}

// cleanName replaces dot/underscore separators with spaces
func cleanName(name string) string {
	cleaned := strings.ReplaceAll(name, ".", " ")
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

func parseIntPtr(s string) *int {
	val, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &val
}

func displayTitle(result *ParsedName, fallback string) string {
	if result.ShowName != nil && result.Season != nil && result.Episode != nil {
		return *result.ShowName + " - " + formatSeasonEpisode(*result.Season, *result.Episode)
	}
	if result.ShowName != nil {
		return *result.ShowName
	}
	return cleanName(fallback)
}

func formatSeasonEpisode(season, episode int) string {
	return "S" + padNumber(season) + "E" + padNumber(episode)
}

func padNumber(num int) string {
	if num < 10 {
		return "0" + strconv.Itoa(num)
	}
	return strconv.Itoa(num)
}
