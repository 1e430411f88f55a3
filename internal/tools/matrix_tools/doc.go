// Package matrix_tools registers the MCP tools that read and edit an
// account's Eisenhower matrix.
//
// Read tools:
//   - matrix_get: the whole matrix grouped by quadrant
//   - matrix_stats: item counts and the most used quadrant
//   - matrix_quadrant_info: names, descriptions and colors of the quadrants
//   - matrix_list_quadrant: the items of one quadrant
//   - matrix_find_item: where an item is
//   - matrix_export: the matrix as a JSON document
//
// Write tools, not registered in read-only mode:
//   - matrix_add_item, matrix_add_current, matrix_set_current
//   - matrix_add_messages: look up Gmail messages and add them
//   - matrix_move_items, matrix_remove_item, matrix_remove_items
//   - matrix_clear_quadrant, matrix_clear_all, matrix_import
//
// Every tool accepts an optional "account" argument selecting the matrix.
package matrix_tools
