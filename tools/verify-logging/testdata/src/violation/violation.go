package violation

import (
	"fmt"
	"log"
)

func Report(n int) {
	log.Printf("processed %d", n)
	fmt.Println("done")
	_ = fmt.Sprintf("%d", n)
}
