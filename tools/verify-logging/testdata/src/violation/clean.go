package violation

import "fmt"

func Describe(n int) string {
	return fmt.Sprint(n)
}
