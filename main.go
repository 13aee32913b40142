package main

import "github.com/frahmantamala/casetrack/cmd"

func main() {
	cmd.Execute()
}
