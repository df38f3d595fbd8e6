// Command bigbedtobed dumps a BigBed file to BED text on stdout, either in
// full or restricted to a single chromosome range.
package main

func main() {
	execute()
}
