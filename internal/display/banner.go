package display

import (
	"fmt"
	"os"
)

// PrintBanner prints the ASCII art banner to stdout.
func PrintBanner() {
	fmt.Fprint(os.Stdout, ` ____  _           _       __     __          _ _
|  _ \| |__   ___ | |_ ___ \ \   / /_ _ _   _| | |_
| |_) | '_ \ / _ \| __/ _ \ \ \ / / _`+"`"+` | | | | | __|
|  __/| | | | (_) | || (_) | \ V / (_| | |_| | | |_
|_|   |_| |_|\___/ \__\___/   \_/ \__,_|\__,_|_|\__|
`)
}
