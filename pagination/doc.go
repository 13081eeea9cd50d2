// Package pagination tracks the cursor and flow control for a list that is filled one page
// at a time from a backend.
//
// A Manager never stores items. The caller supplies a LoadFunc that fetches a page, merges it
// into the list the caller owns and hands back the whole list together with the total the
// backend reported. From that the Manager decides which page comes next, whether more pages
// exist and makes sure only one load is ever outstanding.
//
// Create one Manager per list. Managers share no state with each other.
package pagination
