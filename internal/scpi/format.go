package scpi

import "raptor/x/strconvx"

// formatFloat/parseFloatArg/formatUint route through x/strconvx rather
// than calling strconv directly, matching the teacher's convention of
// funnelling all number<->string conversions through that package.
func formatFloat(v float32) string {
	return strconvx.FormatFloat(float64(v), 'g', -1, 32) + "\n"
}

func formatUint(v uint64) string {
	return strconvx.FormatUint(v, 10) + "\n"
}

func parseFloatArg(args []string) (float32, bool) {
	if len(args) == 0 {
		return 0, false
	}
	v, err := strconvx.ParseFloat(args[0], 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}
