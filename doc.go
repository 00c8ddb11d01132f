// Package walltodo keeps a wall-mounted e-paper panel showing today's tasks.
//
// One call to Pipeline.Run is one refresh cycle:
//
//  1. images dropped into the inbox are normalized into the content library
//  2. tasks are fetched from Todoist
//  3. if the task list matches the cached snapshot, the cycle stops
//  4. otherwise the board is rendered, or a library image is picked by date
//     when there are no tasks
//  5. the snapshot is updated and the image is written to the panel
//
// Runs are expected to be serialized by the caller, typically a cron job
// invoking cmd/walltodo every minute.
package walltodo
