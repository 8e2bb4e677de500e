// Command podroomctl administers a podroom table: creating and backing up
// the table, listing and inspecting Rooms, and importing Room trees from
// JSON. Every command prints indented JSON on stdout.
package main
