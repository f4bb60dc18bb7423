// Package pty launches a child command attached to a pseudo-terminal and
// owns the resulting session: terminal reads and writes, window resizes,
// signal forwarding, and reaping the child with exit classification.
package pty
