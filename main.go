package main

import (
	"radlab-launcher/cmd"
)

// main hands over to the cobra command tree.
//
// radlab-launcher bootstraps the rad command line tool on a workstation:
//   - installs the launcher's own python dependencies (requirements.txt),
//   - installs the pre-requisites: rad's python dependencies, terraform,
//     the Google Cloud SDK and kubectl,
//   - registers the `rad` console command.
//
// Steps run strictly in order and the first failure ends the run with a
// non-zero exit status. Every step's artifacts go into a JSON manifest so a
// failed run can be rolled back (--rollback) and earlier runs undone (cleanup).
func main() {
	cmd.Execute()
}
