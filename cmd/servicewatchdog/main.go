// servicewatchdog keeps a single OS service running: it polls the service
// manager, restarts the service when it stops and backs off when restarts
// happen too often.
package main

import "os"

func main() {
	os.Exit(Execute())
}
