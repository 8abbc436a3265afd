package samplename

import "regexp"

// Read-pair name conventions, most specific first. The _R1_NNN form is
// the Illumina FASTQ naming convention.
var (
	pairR1Tail = regexp.MustCompile(`_R1_\d{3}$`)
	pairR2Tail = regexp.MustCompile(`_R2_\d{3}$`)
	pairR1Mid  = regexp.MustCompile(`_R1_`)
	pairR2Mid  = regexp.MustCompile(`_R2_`)
	pairR1End  = regexp.MustCompile(`([_.-][rR]?1)?$`)
	pairR2End  = regexp.MustCompile(`([_.-][rR]?2)?$`)
)

// MatchPair tries r1 and r2 as the two names of a read pair and returns
// their shared stem. Three conventions are tried in order: a trailing
// _R1_NNN chunk, an _R1_ infix collapsed to "_", and a short terminal
// read tag such as _1, .2 or -R1. The first transformation under which
// both names become equal wins.
func MatchPair(r1, r2 string) (string, bool) {
	if c1, c2 := pairR1Tail.ReplaceAllString(r1, ""), pairR2Tail.ReplaceAllString(r2, ""); c1 == c2 {
		return c1, true
	}
	if c1, c2 := pairR1Mid.ReplaceAllString(r1, "_"), pairR2Mid.ReplaceAllString(r2, "_"); c1 == c2 {
		return c1, true
	}
	if c1, c2 := pairR1End.ReplaceAllString(r1, ""), pairR2End.ReplaceAllString(r2, ""); c1 == c2 {
		return c1, true
	}
	return "", false
}
