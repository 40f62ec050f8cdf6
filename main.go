package main

import "github.com/rkeshri04/CalPal/cmd/calpal"

func main() {
	calpal.Execute()
}
