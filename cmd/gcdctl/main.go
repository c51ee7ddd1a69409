// Command gcdctl boots a space manager from a hand-off document and
// inspects or exercises its memory and I/O maps.
package main

func main() {
	execute()
}
