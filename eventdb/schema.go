// Copyright (c) 2025 The LEVR Protocol developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	kind text,
	user blob(20),
	token blob(20),
	recipient blob(20),
	amount blob,
	ts integer
);

CREATE INDEX if not exists kindIndex on event(kind);
CREATE INDEX if not exists userIndex on event(user);
CREATE INDEX if not exists tokenIndex on event(token);
CREATE INDEX if not exists tsIndex on event(ts);
`
