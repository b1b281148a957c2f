package main

// Entry point for the drifthound CLI
func main() {
	Execute()
}
