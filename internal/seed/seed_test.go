package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable-generator/backend/internal/scheduler"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadParametersWithoutFile(t *testing.T) {
	params, err := LoadParameters("")
	require.NoError(t, err)

	assert.Equal(t, scheduler.DefaultParameters(), *params)
}

func TestLoadParametersOverridesPresentFields(t *testing.T) {
	path := writeFile(t, "parameters.json", `{
		"population_size": 20,
		"mutation_rate": 0.2,
		"selection_pressure": 5,
		"daily_hours": 6
	}`)

	params, err := LoadParameters(path)
	require.NoError(t, err)

	want := scheduler.DefaultParameters()
	want.PopulationSize = 20
	want.MutationRate = 0.2
	want.SelectionPressure = 5
	want.DailyHours = 6
	assert.Equal(t, want, *params)
}

func TestLoadParametersRejectsMalformedJSON(t *testing.T) {
	path := writeFile(t, "parameters.json", `{"population_size": "many"}`)

	_, err := LoadParameters(path)
	assert.ErrorContains(t, err, "解析参数文件")
}

func TestLoadResourceBundle(t *testing.T) {
	path := writeFile(t, "resources.json", `{
		"rooms": [{"id": "r1", "name": "A101", "capacity": 40, "availableSlots": [[true, true], [true, false]]}],
		"courses": [{"id": "c1", "courseCode": "CS101", "title": "数据结构", "duration": 2,
			"availableRooms": ["r1"], "availableSlots": [[true, true], [true, true]]}],
		"teachers": [{"id": "t1", "name": "王伟", "availableSlots": [[true, true], [true, true]]}],
		"atomicSections": [{"id": "s1", "name": "1班"}],
		"entries": [{"id": "l1", "strength": 30, "courseId": "c1", "teacherIds": ["t1"], "atomicSectionIds": ["s1"]}],
		"constraints": []
	}`)

	bundle, err := LoadResourceBundle(path)
	require.NoError(t, err)

	require.Len(t, bundle.Lectures, 1)
	assert.Equal(t, []string{"s1"}, bundle.Lectures[0].SectionIDs)
	assert.Equal(t, []string{"r1"}, bundle.Courses[0].AvailableRooms)
	assert.False(t, bundle.Rooms[0].AvailableSlots[1][1])

	_, err = scheduler.NewResources(bundle, 2, 2)
	assert.NoError(t, err)
}

func TestLoadResourceBundleMissingFile(t *testing.T) {
	_, err := LoadResourceBundle(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
